package ports

import (
	"context"
	"time"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// TokenRepository persists activation tokens. Every lookup that takes a now
// argument ignores tokens whose expiry is before it.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error
	FindValid(ctx context.Context, value string, purpose domain.TokenPurpose, now time.Time) (*domain.Token, error)

	// DeleteValid removes the token only if it is still valid at now and reports
	// domain.ErrTokenNotFound otherwise. Exactly one concurrent caller succeeds.
	DeleteValid(ctx context.Context, id string, now time.Time) (*domain.Token, error)

	Delete(ctx context.Context, id string) error
	DeleteByUserPurpose(ctx context.Context, userID string, purpose domain.TokenPurpose) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
