package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// SessionCookie is the cookie that carries the signed session reference.
const SessionCookie = "session"

// Context keys set by Session for downstream handlers.
const (
	KeyUserID    = "user_id"
	KeySessionID = "session_id"
	KeyIsStaff   = "is_staff"
)

// SessionResolver turns a signed session reference into a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, signed string) (*domain.Session, error)
}

// Session resolves the caller's identity from the session cookie, or from an
// "Authorization: Bearer" header for API clients. Requests without a valid
// session continue anonymously; the Require* gates decide what that means.
func Session(sessions SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			signed := sessionReference(c.Request())
			if signed == "" {
				return next(c)
			}

			sess, err := sessions.Resolve(c.Request().Context(), signed)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return next(c)
				}
				return err
			}

			c.Set(KeyUserID, sess.UserID)
			c.Set(KeySessionID, sess.ID)
			c.Set(KeyIsStaff, sess.IsStaff)
			return next(c)
		}
	}
}

func sessionReference(r *http.Request) string {
	if ck, err := r.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	parts := strings.SplitN(r.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// UserID returns the authenticated user's ID, or "" for anonymous callers.
func UserID(c echo.Context) string {
	id, _ := c.Get(KeyUserID).(string)
	return id
}

// SessionID returns the current session ID, or "".
func SessionID(c echo.Context) string {
	id, _ := c.Get(KeySessionID).(string)
	return id
}

// IsStaff reports whether the caller is an authenticated staff member.
func IsStaff(c echo.Context) bool {
	staff, _ := c.Get(KeyIsStaff).(bool)
	return staff && UserID(c) != ""
}
