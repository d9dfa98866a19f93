package ports

import (
	"context"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// SessionStore keeps server-side session records until they expire.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	// Get returns domain.ErrSessionNotFound for missing or expired sessions.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every session of userID except keepID and reports how many went.
	DeleteByUser(ctx context.Context, userID, keepID string) (int64, error)
}
