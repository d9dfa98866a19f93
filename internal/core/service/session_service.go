package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// SessionService implements login and the signed session reference carried by
// the session cookie. The session itself lives in the SessionStore.
type SessionService struct {
	users      ports.UserRepository
	store      ports.SessionStore
	jwtSecret  string
	sessionTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSessionService(users ports.UserRepository, store ports.SessionStore, jwtSecret string, sessionTTL time.Duration, logger zerolog.Logger) *SessionService {
	if sessionTTL <= 0 {
		sessionTTL = 14 * 24 * time.Hour
	}
	return &SessionService{
		users:      users,
		store:      store,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the credentials and opens a session. Inactive accounts are refused
// even with a correct password.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.Session, string, *domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", nil, domain.ErrInvalidCredentials
		}
		return nil, "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", nil, domain.ErrInvalidCredentials
	}
	if !user.CanAuthenticate() {
		return nil, "", nil, domain.ErrInactiveUser
	}

	sess, signed, err := s.Establish(ctx, user)
	if err != nil {
		return nil, "", nil, err
	}
	return sess, signed, user, nil
}

// Establish opens a session for an already authenticated user.
func (s *SessionService) Establish(ctx context.Context, user *domain.User) (*domain.Session, string, error) {
	if !user.CanAuthenticate() {
		return nil, "", domain.ErrInactiveUser
	}

	now := s.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IsStaff:   user.IsStaff,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, "", err
	}

	signed, err := s.sign(sess)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}
	s.logger.Info().Str("user_id", user.ID).Str("session_id", sess.ID).Msg("session established")
	return sess, signed, nil
}

// Resolve verifies a signed session reference and loads the live session.
func (s *SessionService) Resolve(ctx context.Context, signed string) (*domain.Session, error) {
	if signed == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthenticated
	}

	sid, _ := claims["sid"].(string)
	sub, _ := claims["sub"].(string)
	if sid == "" || sub == "" {
		return nil, domain.ErrUnauthenticated
	}

	sess, err := s.store.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if sess.UserID != sub || s.now().After(sess.ExpiresAt) {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}

// Logout removes the session. Unknown sessions are not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	s.logger.Info().Str("session_id", sessionID).Msg("session closed")
	return nil
}

// RevokeOthers closes every session of userID except keepSessionID. An empty
// keepSessionID closes all of them.
func (s *SessionService) RevokeOthers(ctx context.Context, userID, keepSessionID string) error {
	n, err := s.store.DeleteByUser(ctx, userID, keepSessionID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info().Str("user_id", userID).Int64("count", n).Msg("sessions revoked")
	}
	return nil
}

func (s *SessionService) sign(sess *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid":   sess.ID,
		"sub":   sess.UserID,
		"staff": sess.IsStaff,
		"iat":   sess.CreatedAt.Unix(),
		"exp":   sess.ExpiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
