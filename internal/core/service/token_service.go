package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/api/metrics"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// TokenService issues and redeems activation tokens.
type TokenService struct {
	tokens ports.TokenRepository
	users  ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewTokenService(tokens ports.TokenRepository, users ports.UserRepository, logger zerolog.Logger) *TokenService {
	return &TokenService{
		tokens: tokens,
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a fresh token for user, valid for domain.TokenTTL.
func (s *TokenService) Issue(ctx context.Context, user *domain.User, purpose domain.TokenPurpose, payload string) (*domain.Token, error) {
	now := s.now()
	token := &domain.Token{
		Value:     uuid.NewString(),
		UserID:    user.ID,
		Purpose:   purpose,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.TokenTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("issue %s token: %w", purpose, err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(purpose)).Inc()
	s.logger.Debug().Str("user_id", user.ID).Str("purpose", string(purpose)).Time("expires_at", token.ExpiresAt).Msg("token issued")
	return token, nil
}

// Peek resolves value to a live token and its owner without consuming it.
// Unknown, expired, mismatched and malformed tokens all report domain.ErrTokenNotFound.
func (s *TokenService) Peek(ctx context.Context, value string, purpose domain.TokenPurpose, pred ports.TokenPredicate) (*domain.Token, *domain.User, error) {
	if _, err := uuid.Parse(value); err != nil {
		return nil, nil, domain.ErrTokenNotFound
	}

	token, err := s.tokens.FindValid(ctx, value, purpose, s.now())
	if err != nil {
		return nil, nil, err
	}

	owner, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrTokenNotFound
		}
		return nil, nil, err
	}
	if pred != nil && !pred(owner) {
		return nil, nil, domain.ErrTokenNotFound
	}
	return token, owner, nil
}

// Consume resolves value like Peek and then deletes the token. Of several
// concurrent callers presenting the same value, only one gets past the delete.
func (s *TokenService) Consume(ctx context.Context, value string, purpose domain.TokenPurpose, pred ports.TokenPredicate) (*domain.Token, *domain.User, error) {
	token, owner, err := s.Peek(ctx, value, purpose, pred)
	if err == nil {
		token, err = s.tokens.DeleteValid(ctx, token.ID, s.now())
	}
	if err != nil {
		metrics.TokensConsumedTotal.WithLabelValues(string(purpose), "rejected").Inc()
		return nil, nil, err
	}

	metrics.TokensConsumedTotal.WithLabelValues(string(purpose), "ok").Inc()
	return token, owner, nil
}

// Revoke deletes an issued token regardless of its expiry.
func (s *TokenService) Revoke(ctx context.Context, token *domain.Token) error {
	if err := s.tokens.Delete(ctx, token.ID); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAll deletes every outstanding token of user for purpose.
func (s *TokenService) RevokeAll(ctx context.Context, userID string, purpose domain.TokenPurpose) error {
	n, err := s.tokens.DeleteByUserPurpose(ctx, userID, purpose)
	if err != nil {
		return fmt.Errorf("revoke %s tokens: %w", purpose, err)
	}
	if n > 0 {
		s.logger.Debug().Str("user_id", userID).Str("purpose", string(purpose)).Int64("count", n).Msg("tokens revoked")
	}
	return nil
}

// SweepExpired deletes all tokens that expired before now.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired tokens: %w", err)
	}
	metrics.TokensSweptTotal.Add(float64(n))
	return n, nil
}
