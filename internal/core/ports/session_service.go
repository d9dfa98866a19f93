package ports

import (
	"context"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// SessionService opens, resolves and closes login sessions.
// The signed string is what travels in the session cookie.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*domain.Session, string, *domain.User, error)
	Establish(ctx context.Context, user *domain.User) (*domain.Session, string, error)
	Resolve(ctx context.Context, signed string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	// RevokeOthers closes every session of userID except keepSessionID, which may be empty.
	RevokeOthers(ctx context.Context, userID, keepSessionID string) error
}
