package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/api/middleware"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// AccountHandler serves registration, login, profile, email and password changes.
type AccountHandler struct {
	accounts ports.AccountService
	sessions ports.SessionService
	cookie   CookieConfig
	logger   zerolog.Logger
}

func NewAccountHandler(accounts ports.AccountService, sessions ports.SessionService, cookie CookieConfig, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, sessions: sessions, cookie: cookie, logger: logger}
}

// SignUp registers an inactive exhibitor and mails the activation link.
//
// @Summary      Register an exhibitor
// @Tags         accounts
// @Accept       json,mpfd
// @Produce      json
// @Param        body         body      signupRequest  true   "Registration form"
// @Param        flyer_image  formData  file           false  "Booth flyer (jpg, jpeg, png, gif)"
// @Success      201          {object}  userResponse
// @Failure      409          {object}  map[string]string
// @Failure      422          {object}  map[string]string
// @Failure      502          {object}  map[string]string
// @Router       /accounts/signup/ [post]
func (h *AccountHandler) SignUp(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	flyer, closeFlyer, err := flyerUpload(c)
	if err != nil {
		return err
	}
	defer closeFlyer()

	user, err := h.accounts.SignUp(c.Request().Context(), req.toInput(flyer))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// VerifyEmail activates the account behind an activation link and signs it in.
//
// @Summary      Verify a sign-up email address
// @Tags         accounts
// @Produce      json
// @Param        token  path      string  true  "Activation token"
// @Success      200    {object}  verifyResponse
// @Failure      404    {object}  verifyResponse
// @Router       /accounts/verify-email/{token}/ [get]
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.accounts.Activate(ctx, c.Param("token"))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return c.JSON(http.StatusNotFound, verifyResponse{Success: false})
		}
		return err
	}

	sess, signed, err := h.sessions.Establish(ctx, user)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", user.ID).Msg("account activated but auto-login failed")
	} else {
		h.cookie.set(c, signed, sess.ExpiresAt)
	}
	return c.JSON(http.StatusOK, verifyResponse{Success: true})
}

// ResendActivation mails a fresh activation link. The response is the same
// whether or not a pending account exists for the address.
//
// @Summary      Resend the activation link
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      resendRequest  true  "Address used at sign-up"
// @Success      202   {object}  messageResponse
// @Failure      422   {object}  map[string]string
// @Router       /accounts/verify-email/resend/ [post]
func (h *AccountHandler) ResendActivation(c echo.Context) error {
	var req resendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.ResendActivation(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "if a pending account exists for this address, a new link has been sent"})
}

// Login opens a session and sets the session cookie.
//
// @Summary      Login
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /accounts/login/ [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, signed, user, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookie.set(c, signed, sess.ExpiresAt)
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Logout closes the current session.
//
// @Summary      Logout
// @Tags         accounts
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /accounts/logout/ [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return err
	}
	h.cookie.clear(c)
	return c.NoContent(http.StatusNoContent)
}

// GetProfile returns the caller's account.
//
// @Summary      Show the profile
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  map[string]string
// @Router       /accounts/update/ [get]
func (h *AccountHandler) GetProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	view, err := h.accounts.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProfileResponse(view))
}

// UpdateProfile replaces the editable profile fields, optionally with a new flyer.
//
// @Summary      Update the profile
// @Tags         accounts
// @Accept       json,mpfd
// @Produce      json
// @Param        body         body      profileRequest  true   "Profile fields"
// @Param        flyer_image  formData  file            false  "New booth flyer"
// @Success      200          {object}  profileResponse
// @Failure      401          {object}  map[string]string
// @Failure      422          {object}  map[string]string
// @Router       /accounts/update/ [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	flyer, closeFlyer, err := flyerUpload(c)
	if err != nil {
		return err
	}
	defer closeFlyer()

	view, err := h.accounts.UpdateProfile(c.Request().Context(), userID, req.toInput(flyer))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProfileResponse(view))
}

// RequestEmailChange mails a confirmation link to the new address.
//
// @Summary      Request an email change
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      emailChangeRequest  true  "Current password and new address"
// @Success      202   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /accounts/email/change/ [post]
func (h *AccountHandler) RequestEmailChange(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req emailChangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.RequestEmailChange(c.Request().Context(), userID, req.CurrentPassword, req.NewEmail); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "a confirmation link has been sent to the new address"})
}

// ConfirmEmailChange applies a pending email change.
//
// @Summary      Confirm an email change
// @Tags         accounts
// @Produce      json
// @Param        token  path      string  true  "Email change token"
// @Success      200    {object}  verifyResponse
// @Failure      401    {object}  map[string]string
// @Failure      404    {object}  verifyResponse
// @Failure      409    {object}  map[string]string
// @Router       /accounts/email/verify/{token}/ [get]
func (h *AccountHandler) ConfirmEmailChange(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if _, err := h.accounts.ConfirmEmailChange(c.Request().Context(), userID, c.Param("token")); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return c.JSON(http.StatusNotFound, verifyResponse{Success: false})
		}
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{Success: true})
}

// ChangePassword replaces the caller's password and closes their other sessions.
//
// @Summary      Change the password
// @Tags         accounts
// @Accept       json
// @Param        body  body  passwordChangeRequest  true  "Current and new password"
// @Success      204
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /accounts/password/change/ [post]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req passwordChangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.accounts.ChangePassword(ctx, userID, req.CurrentPassword, newPasswordInput(req.NewPassword, req.NewPasswordConfirm)); err != nil {
		return err
	}
	if err := h.sessions.RevokeOthers(ctx, userID, middleware.SessionID(c)); err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID).Msg("password changed but other sessions not revoked")
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestPasswordReset mails a reset link. The response does not reveal
// whether an account exists for the address.
//
// @Summary      Request a password reset
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetRequest  true  "Account address"
// @Success      202   {object}  messageResponse
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /accounts/password/reset/ [post]
func (h *AccountHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "if an active account exists for this address, a reset link has been sent"})
}

// CheckPasswordReset tells whether a reset link can still be used.
//
// @Summary      Check a password reset link
// @Tags         accounts
// @Produce      json
// @Param        token  path      string  true  "Password reset token"
// @Success      200    {object}  verifyResponse
// @Failure      404    {object}  verifyResponse
// @Router       /accounts/password/reset/{token}/ [get]
func (h *AccountHandler) CheckPasswordReset(c echo.Context) error {
	if err := h.accounts.CheckPasswordReset(c.Request().Context(), c.Param("token")); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return c.JSON(http.StatusNotFound, verifyResponse{Success: false})
		}
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{Success: true})
}

// ResetPassword sets a new password through a reset link and closes every
// session of the account.
//
// @Summary      Reset the password
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        token  path      string                       true  "Password reset token"
// @Param        body   body      passwordResetConfirmRequest  true  "New password"
// @Success      200    {object}  verifyResponse
// @Failure      404    {object}  verifyResponse
// @Failure      422    {object}  map[string]string
// @Router       /accounts/password/reset/{token}/ [post]
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req passwordResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.accounts.ResetPassword(ctx, c.Param("token"), newPasswordInput(req.NewPassword, req.NewPasswordConfirm))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return c.JSON(http.StatusNotFound, verifyResponse{Success: false})
		}
		return err
	}
	if err := h.sessions.RevokeOthers(ctx, user.ID, ""); err != nil {
		h.logger.Warn().Err(err).Str("user_id", user.ID).Msg("password reset but sessions not revoked")
	}
	return c.JSON(http.StatusOK, verifyResponse{Success: true})
}

// flyerUpload opens the optional flyer file of a multipart request. The
// returned func closes it and is always safe to call.
func flyerUpload(c echo.Context) (*ports.FlyerUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, noop, nil
	}

	fh, err := c.FormFile(flyerField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "invalid flyer upload")
	}
	if fh.Size > maxFlyerSize {
		return nil, noop, fmt.Errorf("%w: %s must be at most %d MB", domain.ErrValidation, flyerField, maxFlyerSize>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "invalid flyer upload")
	}
	return &ports.FlyerUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
