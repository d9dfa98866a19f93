package ports

import (
	"context"
	"io"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// FlyerUpload is an image attached to a sign-up or profile update.
type FlyerUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SignUpInput carries the registration form.
type SignUpInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FullName        string
	Phone           string
	PostalCode      string
	Address         string
	Flyer           *FlyerUpload // optional
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	Profile domain.Profile
	Flyer   *FlyerUpload // optional, replaces the current flyer
}

// ProfileView is a user plus a readable flyer link.
type ProfileView struct {
	User     *domain.User
	FlyerURL string
}

// StaffInput carries the fields for a command-line created administrator.
type StaffInput struct {
	Email    string
	Password string
	FullName string
}

// PasswordChangeInput carries a new password and its confirmation.
type PasswordChangeInput struct {
	NewPassword     string
	NewPasswordConf string
}

// AccountService covers registration, activation, profile, email and password changes.
type AccountService interface {
	SignUp(ctx context.Context, input SignUpInput) (*domain.User, error)
	Activate(ctx context.Context, tokenValue string) (*domain.User, error)
	ResendActivation(ctx context.Context, email string) error

	RequestEmailChange(ctx context.Context, userID, currentPassword, newEmail string) error
	ConfirmEmailChange(ctx context.Context, userID, tokenValue string) (*domain.User, error)

	ChangePassword(ctx context.Context, userID, currentPassword string, input PasswordChangeInput) error
	RequestPasswordReset(ctx context.Context, email string) error
	// CheckPasswordReset reports whether a reset link is still usable without consuming it.
	CheckPasswordReset(ctx context.Context, tokenValue string) error
	ResetPassword(ctx context.Context, tokenValue string, input PasswordChangeInput) (*domain.User, error)

	GetProfile(ctx context.Context, userID string) (*ProfileView, error)
	UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*ProfileView, error)

	CreateStaff(ctx context.Context, input StaffInput) (*domain.User, error)
}
