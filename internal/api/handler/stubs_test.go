package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boothfair/exhibitor-portal/internal/api/middleware"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

type stubAccountService struct {
	signUpFn       func(ctx context.Context, in ports.SignUpInput) (*domain.User, error)
	activateFn     func(ctx context.Context, token string) (*domain.User, error)
	resendFn       func(ctx context.Context, email string) error
	requestFn      func(ctx context.Context, userID, password, newEmail string) error
	confirmFn      func(ctx context.Context, userID, token string) (*domain.User, error)
	getProfileFn   func(ctx context.Context, userID string) (*ports.ProfileView, error)
	updateProfileF func(ctx context.Context, userID string, in ports.ProfileInput) (*ports.ProfileView, error)
	changePassFn   func(ctx context.Context, userID, current string, in ports.PasswordChangeInput) error
	requestResetFn func(ctx context.Context, email string) error
	checkResetFn   func(ctx context.Context, token string) error
	resetFn        func(ctx context.Context, token string, in ports.PasswordChangeInput) (*domain.User, error)
}

func (s *stubAccountService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAccountService) Activate(ctx context.Context, token string) (*domain.User, error) {
	return s.activateFn(ctx, token)
}

func (s *stubAccountService) ResendActivation(ctx context.Context, email string) error {
	return s.resendFn(ctx, email)
}

func (s *stubAccountService) RequestEmailChange(ctx context.Context, userID, password, newEmail string) error {
	return s.requestFn(ctx, userID, password, newEmail)
}

func (s *stubAccountService) ConfirmEmailChange(ctx context.Context, userID, token string) (*domain.User, error) {
	return s.confirmFn(ctx, userID, token)
}

func (s *stubAccountService) GetProfile(ctx context.Context, userID string) (*ports.ProfileView, error) {
	return s.getProfileFn(ctx, userID)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, userID string, in ports.ProfileInput) (*ports.ProfileView, error) {
	return s.updateProfileF(ctx, userID, in)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, userID, current string, in ports.PasswordChangeInput) error {
	return s.changePassFn(ctx, userID, current, in)
}

func (s *stubAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestResetFn(ctx, email)
}

func (s *stubAccountService) CheckPasswordReset(ctx context.Context, token string) error {
	return s.checkResetFn(ctx, token)
}

func (s *stubAccountService) ResetPassword(ctx context.Context, token string, in ports.PasswordChangeInput) (*domain.User, error) {
	return s.resetFn(ctx, token, in)
}

func (s *stubAccountService) CreateStaff(context.Context, ports.StaffInput) (*domain.User, error) {
	panic("not used by handlers")
}

type stubSessionService struct {
	loginFn     func(ctx context.Context, email, password string) (*domain.Session, string, *domain.User, error)
	establishFn func(ctx context.Context, user *domain.User) (*domain.Session, string, error)
	loggedOut   []string
	revoked     [][2]string
}

func (s *stubSessionService) Login(ctx context.Context, email, password string) (*domain.Session, string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubSessionService) Establish(ctx context.Context, user *domain.User) (*domain.Session, string, error) {
	return s.establishFn(ctx, user)
}

func (s *stubSessionService) Resolve(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrUnauthenticated
}

func (s *stubSessionService) Logout(_ context.Context, sid string) error {
	s.loggedOut = append(s.loggedOut, sid)
	return nil
}

func (s *stubSessionService) RevokeOthers(_ context.Context, userID, keep string) error {
	s.revoked = append(s.revoked, [2]string{userID, keep})
	return nil
}

// newContext builds an echo context with the production validator. A non-empty
// userID marks the request as signed in.
func newContext(method, target, contentType string, body io.Reader, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.KeyUserID, userID)
		c.Set(middleware.KeySessionID, "sess-"+userID)
	}
	return c, rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

var sessionExpiry = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
