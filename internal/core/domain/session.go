package domain

import (
	"errors"
	"time"
)

var ErrUnauthenticated = errors.New("authentication required")
var ErrSessionNotFound = errors.New("session not found")
var ErrForbidden = errors.New("access forbidden")

// Session is a server-side login record. The cookie only carries a signed reference to it.
type Session struct {
	ID        string
	UserID    string
	IsStaff   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}
