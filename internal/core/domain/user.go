package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailTaken = errors.New("email already registered")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInactiveUser = errors.New("account is not active")
var ErrSameEmail = errors.New("new email must differ from the current email")
var ErrValidation = errors.New("validation failed")

// User is a booth exhibitor account, or a staff account created from the command line.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	// Required at sign-up.
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`

	// Filled in later from the profile screen.
	OrganizationName   string `json:"organization_name,omitempty"`
	RepresentativeName string `json:"representative_name,omitempty"`
	BoothName          string `json:"booth_name,omitempty"`
	BoothSummary       string `json:"booth_summary,omitempty"`
	BoothDescription   string `json:"booth_description,omitempty"`
	FlyerKey           string `json:"flyer_key,omitempty"`

	IsActive      bool       `json:"is_active"`
	IsStaff       bool       `json:"is_staff"`
	EmailVerified bool       `json:"email_verified"`
	DateJoined    time.Time  `json:"date_joined"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CanAuthenticate reports whether the account may open a session.
func (u *User) CanAuthenticate() bool {
	return u != nil && u.IsActive
}

// Profile holds the user-editable fields of an account.
type Profile struct {
	FullName           string
	Phone              string
	PostalCode         string
	Address            string
	OrganizationName   string
	RepresentativeName string
	BoothName          string
	BoothSummary       string
	BoothDescription   string
}

// NormalizeEmail trims the address and lowercases its domain part.
// The local part is kept as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

var flyerExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
}

// FlyerExtension returns the lowercased extension of filename and whether it is
// an accepted flyer image type.
func FlyerExtension(filename string) (string, bool) {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 || dot == len(filename)-1 {
		return "", false
	}
	ext := strings.ToLower(filename[dot+1:])
	_, ok := flyerExtensions[ext]
	return ext, ok
}
