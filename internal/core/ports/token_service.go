package ports

import (
	"context"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// TokenPredicate is checked against the token owner before a token is accepted.
type TokenPredicate func(owner *domain.User) bool

// TokenService issues and redeems single-use activation tokens.
type TokenService interface {
	Issue(ctx context.Context, user *domain.User, purpose domain.TokenPurpose, payload string) (*domain.Token, error)
	// Peek resolves a token without consuming it.
	Peek(ctx context.Context, value string, purpose domain.TokenPurpose, pred TokenPredicate) (*domain.Token, *domain.User, error)
	// Consume resolves and deletes a token. Any failure is domain.ErrTokenNotFound.
	Consume(ctx context.Context, value string, purpose domain.TokenPurpose, pred TokenPredicate) (*domain.Token, *domain.User, error)
	Revoke(ctx context.Context, token *domain.Token) error
	RevokeAll(ctx context.Context, userID string, purpose domain.TokenPurpose) error
	SweepExpired(ctx context.Context) (int64, error)
}
