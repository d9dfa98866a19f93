package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boothfair/exhibitor-portal/internal/api/middleware"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// currentUserID returns the authenticated user ID or ErrUnauthenticated. Routes
// behind RequireAuthenticated never see the error; it guards against a
// handler being mounted without the gate.
func currentUserID(c echo.Context) (string, error) {
	id := middleware.UserID(c)
	if id == "" {
		return "", domain.ErrUnauthenticated
	}
	return id, nil
}

// CookieConfig controls the session cookie written on login.
type CookieConfig struct {
	Secure bool
}

func (cc CookieConfig) set(c echo.Context, signed string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
