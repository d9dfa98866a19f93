package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/boothfair/exhibitor-portal/internal/api/metrics"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

const (
	minPasswordLen = 8
	// maxPasswordLen is the bcrypt input limit, in bytes.
	maxPasswordLen = 72
	flyerURLTTL    = time.Hour

	activationPath    = "/accounts/verify-email/"
	emailChangePath   = "/accounts/email/verify/"
	passwordResetPath = "/accounts/password/reset/"
)

var validate = validator.New()

// AccountService implements registration, activation, profile maintenance and
// the email and password change flows.
type AccountService struct {
	users    ports.UserRepository
	tokens   ports.TokenService
	notifier ports.Notifier
	flyers   ports.FlyerStore
	baseURL  string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAccountService wires the account flows. flyers may be nil, in which case
// flyer uploads are refused.
func NewAccountService(
	users ports.UserRepository,
	tokens ports.TokenService,
	notifier ports.Notifier,
	flyers ports.FlyerStore,
	baseURL string,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		flyers:   flyers,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SignUp creates an inactive account and mails it an activation link.
// When the mail cannot be sent the account stays pending; ResendActivation recovers it.
func (s *AccountService) SignUp(ctx context.Context, input ports.SignUpInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(input.Password, input.PasswordConfirm); err != nil {
		return nil, err
	}
	if err := checkRequired(map[string]string{
		"full_name":   input.FullName,
		"phone":       input.Phone,
		"postal_code": input.PostalCode,
		"address":     input.Address,
	}); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var flyerKey string
	if input.Flyer != nil {
		if flyerKey, err = s.storeFlyer(ctx, input.Flyer); err != nil {
			return nil, err
		}
	}

	now := s.now()
	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		PostalCode:   strings.TrimSpace(input.PostalCode),
		Address:      strings.TrimSpace(input.Address),
		FlyerKey:     flyerKey,
		DateJoined:   now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	metrics.SignupsTotal.Inc()
	s.logger.Info().Str("user_id", user.ID).Msg("exhibitor signed up")

	if err := s.sendActivation(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("activation mail not sent, account left pending")
		return nil, err
	}
	return user, nil
}

// Activate consumes an activation token and activates its owner. The token is
// only accepted while the owner is still inactive.
func (s *AccountService) Activate(ctx context.Context, tokenValue string) (*domain.User, error) {
	_, owner, err := s.tokens.Consume(ctx, tokenValue, domain.PurposeActivation, func(u *domain.User) bool {
		return !u.IsActive
	})
	if err != nil {
		return nil, err
	}

	user, err := s.users.Activate(ctx, owner.ID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}

	if err := s.tokens.RevokeAll(ctx, user.ID, domain.PurposeActivation); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("leftover activation tokens not revoked")
	}
	s.logger.Info().Str("user_id", user.ID).Msg("account activated")
	return user, nil
}

// ResendActivation replaces the outstanding activation tokens of a pending
// account with a fresh one. Unknown and already active addresses succeed silently.
func (s *AccountService) ResendActivation(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.IsActive {
		return nil
	}

	if err := s.tokens.RevokeAll(ctx, user.ID, domain.PurposeActivation); err != nil {
		return err
	}
	return s.sendActivation(ctx, user)
}

func (s *AccountService) sendActivation(ctx context.Context, user *domain.User) error {
	token, err := s.tokens.Issue(ctx, user, domain.PurposeActivation, "")
	if err != nil {
		return err
	}
	return s.notify(ctx, ports.Notification{
		Template: ports.TemplateVerification,
		To:       user.Email,
		Data: map[string]any{
			"user":         user.FullName,
			"link":         s.link(activationPath, token.Value),
			"expire_hours": token.ExpireHours(),
		},
	})
}

// RequestEmailChange re-authenticates the user and mails a confirmation link to newEmail.
func (s *AccountService) RequestEmailChange(ctx context.Context, userID, currentPassword, newEmail string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	newEmail = domain.NormalizeEmail(newEmail)
	if err := checkEmail(newEmail); err != nil {
		return err
	}
	if strings.EqualFold(newEmail, user.Email) {
		return domain.ErrSameEmail
	}
	if err := s.ensureUnclaimed(ctx, newEmail, user.ID); err != nil {
		return err
	}

	token, err := s.tokens.Issue(ctx, user, domain.PurposeEmailChange, newEmail)
	if err != nil {
		return err
	}

	err = s.notify(ctx, ports.Notification{
		Template: ports.TemplateEmailChange,
		To:       newEmail,
		Data: map[string]any{
			"user":         user.FullName,
			"link":         s.link(emailChangePath, token.Value),
			"expire_hours": token.ExpireHours(),
			"new_email":    newEmail,
		},
	})
	if err != nil {
		// An undeliverable token must not linger.
		if rerr := s.tokens.Revoke(ctx, token); rerr != nil {
			s.logger.Error().Err(rerr).Str("user_id", user.ID).Msg("failed to revoke undelivered email change token")
		}
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("email change requested")
	return nil
}

// ConfirmEmailChange consumes an email change token issued to userID and moves
// the account to the new address. The address is checked again here, so a
// competing registration made after the request makes this step fail with
// domain.ErrEmailTaken and leaves the current address and the token untouched.
func (s *AccountService) ConfirmEmailChange(ctx context.Context, userID, tokenValue string) (*domain.User, error) {
	ownedByCaller := func(u *domain.User) bool { return u.ID == userID }

	token, _, err := s.tokens.Peek(ctx, tokenValue, domain.PurposeEmailChange, ownedByCaller)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnclaimed(ctx, token.Payload, userID); err != nil {
		return nil, err
	}

	token, owner, err := s.tokens.Consume(ctx, tokenValue, domain.PurposeEmailChange, ownedByCaller)
	if err != nil {
		return nil, err
	}

	oldEmail := owner.Email
	updated, err := s.users.UpdateEmail(ctx, owner.ID, token.Payload, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", updated.ID).Msg("email changed")

	err = s.notify(ctx, ports.Notification{
		Template: ports.TemplateEmailChanged,
		To:       oldEmail,
		Data: map[string]any{
			"user":      updated.FullName,
			"old_email": oldEmail,
			"new_email": updated.Email,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", updated.ID).Msg("old address not notified of email change")
	}
	return updated, nil
}

func (s *AccountService) ensureUnclaimed(ctx context.Context, email, userID string) error {
	other, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != userID:
		return domain.ErrEmailTaken
	}
	return nil
}

// ChangePassword replaces the password of a signed-in user after checking the current one.
// Outstanding reset links stop working.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword string, input ports.PasswordChangeInput) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	if err := s.setPassword(ctx, user.ID, input); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

// RequestPasswordReset mails a reset link to an active account. Unknown and
// inactive addresses succeed silently, as does a repeated request, which
// replaces the earlier link.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.CanAuthenticate() {
		return nil
	}

	if err := s.tokens.RevokeAll(ctx, user.ID, domain.PurposePasswordReset); err != nil {
		return err
	}
	token, err := s.tokens.Issue(ctx, user, domain.PurposePasswordReset, "")
	if err != nil {
		return err
	}

	err = s.notify(ctx, ports.Notification{
		Template: ports.TemplatePasswordReset,
		To:       user.Email,
		Data: map[string]any{
			"user":         user.FullName,
			"link":         s.link(passwordResetPath, token.Value),
			"expire_hours": token.ExpireHours(),
		},
	})
	if err != nil {
		if rerr := s.tokens.Revoke(ctx, token); rerr != nil {
			s.logger.Error().Err(rerr).Str("user_id", user.ID).Msg("failed to revoke undelivered password reset token")
		}
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// CheckPasswordReset reports domain.ErrTokenNotFound unless tokenValue is a live reset link.
func (s *AccountService) CheckPasswordReset(ctx context.Context, tokenValue string) error {
	_, _, err := s.tokens.Peek(ctx, tokenValue, domain.PurposePasswordReset, resettable)
	return err
}

// ResetPassword consumes a reset link and sets a new password on its owner.
// The password is validated first so a typo does not burn the link.
func (s *AccountService) ResetPassword(ctx context.Context, tokenValue string, input ports.PasswordChangeInput) (*domain.User, error) {
	if err := checkPassword(input.NewPassword, input.NewPasswordConf); err != nil {
		return nil, err
	}

	_, owner, err := s.tokens.Consume(ctx, tokenValue, domain.PurposePasswordReset, resettable)
	if err != nil {
		return nil, err
	}
	if err := s.setPassword(ctx, owner.ID, input); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", owner.ID).Msg("password reset")
	return owner, nil
}

func resettable(u *domain.User) bool { return u.CanAuthenticate() }

func (s *AccountService) setPassword(ctx context.Context, userID string, input ports.PasswordChangeInput) error {
	if err := checkPassword(input.NewPassword, input.NewPasswordConf); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash), s.now()); err != nil {
		return err
	}
	if err := s.tokens.RevokeAll(ctx, userID, domain.PurposePasswordReset); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("leftover password reset tokens not revoked")
	}
	return nil
}

// GetProfile returns the account of userID with a readable flyer link.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*ports.ProfileView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileView(ctx, user), nil
}

// UpdateProfile overwrites the editable profile fields and optionally replaces the flyer.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, input ports.ProfileInput) (*ports.ProfileView, error) {
	p := input.Profile
	if err := checkRequired(map[string]string{
		"full_name":   p.FullName,
		"phone":       p.Phone,
		"postal_code": p.PostalCode,
		"address":     p.Address,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	if input.Flyer != nil {
		key, err := s.storeFlyer(ctx, input.Flyer)
		if err != nil {
			return nil, err
		}
		if err := s.users.SetFlyer(ctx, userID, key, now); err != nil {
			return nil, err
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, trimProfile(p), now)
	if err != nil {
		return nil, err
	}
	return s.profileView(ctx, user), nil
}

// CreateStaff creates an active, verified administrator account.
func (s *AccountService) CreateStaff(ctx context.Context, input ports.StaffInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(input.Password, input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user, err := s.users.Create(ctx, &domain.User{
		Email:         email,
		PasswordHash:  string(hash),
		FullName:      strings.TrimSpace(input.FullName),
		IsActive:      true,
		IsStaff:       true,
		EmailVerified: true,
		DateJoined:    now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("staff account created")
	return user, nil
}

func (s *AccountService) profileView(ctx context.Context, user *domain.User) *ports.ProfileView {
	view := &ports.ProfileView{User: user}
	if user.FlyerKey == "" || s.flyers == nil {
		return view
	}
	url, err := s.flyers.URL(ctx, user.FlyerKey, flyerURLTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("flyer link unavailable")
		return view
	}
	view.FlyerURL = url
	return view
}

func (s *AccountService) storeFlyer(ctx context.Context, f *ports.FlyerUpload) (string, error) {
	if _, ok := domain.FlyerExtension(f.Filename); !ok {
		return "", fmt.Errorf("%w: flyer_image must be a jpg, jpeg, png or gif file", domain.ErrValidation)
	}
	if s.flyers == nil {
		return "", fmt.Errorf("%w: flyer uploads are not configured", domain.ErrStorageFailed)
	}
	key, err := s.flyers.Put(ctx, f.Filename, f.ContentType, f.Size, f.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	return key, nil
}

func (s *AccountService) notify(ctx context.Context, n ports.Notification) error {
	if err := s.notifier.Send(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(n.Template, "failed").Inc()
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}
	metrics.NotificationsTotal.WithLabelValues(n.Template, "sent").Inc()
	return nil
}

func (s *AccountService) link(path, token string) string {
	return s.baseURL + path + token + "/"
}

func trimProfile(p domain.Profile) domain.Profile {
	return domain.Profile{
		FullName:           strings.TrimSpace(p.FullName),
		Phone:              strings.TrimSpace(p.Phone),
		PostalCode:         strings.TrimSpace(p.PostalCode),
		Address:            strings.TrimSpace(p.Address),
		OrganizationName:   strings.TrimSpace(p.OrganizationName),
		RepresentativeName: strings.TrimSpace(p.RepresentativeName),
		BoothName:          strings.TrimSpace(p.BoothName),
		BoothSummary:       strings.TrimSpace(p.BoothSummary),
		BoothDescription:   strings.TrimSpace(p.BoothDescription),
	}
}

func checkEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: email must be a valid email", domain.ErrValidation)
	}
	return nil
}

func checkPassword(password, confirm string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, maxPasswordLen)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
	}
	return nil
}

// checkRequired reports the first blank field in a fixed order.
func checkRequired(fields map[string]string) error {
	for _, name := range []string{"full_name", "phone", "postal_code", "address"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrValidation, name)
		}
	}
	return nil
}
