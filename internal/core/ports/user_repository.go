package ports

import (
	"context"
	"time"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// UserRepository defines persistence for exhibitor and staff accounts.
type UserRepository interface {
	// Create stores a new user and returns it with its ID set.
	// A duplicate email returns domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// Activate sets is_active and email_verified only while the user is still inactive.
	// It returns domain.ErrUserNotFound when no inactive user matched.
	Activate(ctx context.Context, id string, at time.Time) (*domain.User, error)

	// UpdateEmail overwrites the address. The unique index maps to domain.ErrEmailTaken.
	UpdateEmail(ctx context.Context, id, email string, at time.Time) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, profile domain.Profile, at time.Time) (*domain.User, error)
	SetFlyer(ctx context.Context, id, key string, at time.Time) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
