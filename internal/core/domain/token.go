package domain

import (
	"errors"
	"time"
)

// TokenTTL is the fixed validity window of every activation token.
const TokenTTL = 24 * time.Hour

// ErrTokenNotFound covers expired, consumed, mismatched and unknown tokens alike.
var ErrTokenNotFound = errors.New("token not found")

// TokenPurpose separates the flows that may consume a token.
type TokenPurpose string

const (
	PurposeActivation    TokenPurpose = "activation"
	PurposeEmailChange   TokenPurpose = "email_change"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// Token is a single-use, time-bound credential mailed to an inbox.
// A token exists until it is consumed; consumption deletes it.
type Token struct {
	ID        string
	Value     string
	UserID    string
	Purpose   TokenPurpose
	Payload   string // new email address for PurposeEmailChange
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Valid reports whether the token can still be consumed at now.
// The expiry instant itself is inclusive.
func (t *Token) Valid(now time.Time) bool {
	return !now.After(t.ExpiresAt)
}

// ExpireHours is the validity window as whole hours, used in mail bodies.
func (t *Token) ExpireHours() int {
	return int(t.ExpiresAt.Sub(t.CreatedAt) / time.Hour)
}
