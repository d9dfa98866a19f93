package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/api/middleware"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

const signupJSON = `{"email":"hanako@Expo.example","password":"correct-horse","password_confirm":"correct-horse",
"full_name":"Hanako Sato","phone":"03-1234-5678","postal_code":"100-0001","address":"Chiyoda 1-1"}`

func newAccountHandler(accounts *stubAccountService, sessions *stubSessionService) *AccountHandler {
	return NewAccountHandler(accounts, sessions, CookieConfig{Secure: true}, zerolog.Nop())
}

func sessionCookie(t *testing.T, rec interface{ Result() *http.Response }) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			return ck
		}
	}
	return nil
}

func TestAccountHandler_SignUp_JSON(t *testing.T) {
	accounts := &stubAccountService{
		signUpFn: func(_ context.Context, in ports.SignUpInput) (*domain.User, error) {
			if in.Email != "hanako@Expo.example" || in.FullName != "Hanako Sato" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.Flyer != nil {
				t.Fatalf("json sign-up must not carry a flyer")
			}
			return &domain.User{ID: "user-1", Email: "hanako@expo.example", FullName: in.FullName}, nil
		},
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	c, rec := newContext(http.MethodPost, "/accounts/signup/", "application/json", jsonBody(signupJSON), "")
	if err := h.SignUp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		User struct {
			ID       string `json:"id"`
			IsActive bool   `json:"is_active"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.ID != "user-1" || resp.User.IsActive {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks password data: %s", rec.Body.String())
	}
}

func TestAccountHandler_SignUp_ValidationNamesJSONFields(t *testing.T) {
	accounts := &stubAccountService{
		signUpFn: func(context.Context, ports.SignUpInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	body := strings.Replace(signupJSON, `"password_confirm":"correct-horse"`, `"password_confirm":"other"`, 1)
	c, _ := newContext(http.MethodPost, "/accounts/signup/", "application/json", jsonBody(body), "")
	err := h.SignUp(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "password_confirm") {
		t.Fatalf("expected json field name in %q", err.Error())
	}
}

func TestAccountHandler_SignUp_MultipartFlyer(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"email": "hanako@expo.example", "password": "correct-horse", "password_confirm": "correct-horse",
		"full_name": "Hanako Sato", "phone": "03-1234-5678", "postal_code": "100-0001", "address": "Chiyoda 1-1",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := w.CreateFormFile(flyerField, "booth.png")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	_, _ = fw.Write([]byte("\x89PNG fake"))
	_ = w.Close()

	var gotName, gotBody string
	accounts := &stubAccountService{
		signUpFn: func(_ context.Context, in ports.SignUpInput) (*domain.User, error) {
			if in.Flyer == nil {
				t.Fatalf("flyer missing")
			}
			gotName = in.Flyer.Filename
			b, _ := io.ReadAll(in.Flyer.Body)
			gotBody = string(b)
			return &domain.User{ID: "user-1", Email: in.Email}, nil
		},
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	c, rec := newContext(http.MethodPost, "/accounts/signup/", w.FormDataContentType(), &buf, "")
	if err := h.SignUp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if gotName != "booth.png" || gotBody != "\x89PNG fake" {
		t.Fatalf("flyer not forwarded: %q %q", gotName, gotBody)
	}
}

func TestAccountHandler_VerifyEmail_SignsIn(t *testing.T) {
	user := &domain.User{ID: "user-1", IsActive: true}
	accounts := &stubAccountService{
		activateFn: func(_ context.Context, token string) (*domain.User, error) {
			if token != "tok-1" {
				t.Fatalf("unexpected token %q", token)
			}
			return user, nil
		},
	}
	sessions := &stubSessionService{
		establishFn: func(_ context.Context, u *domain.User) (*domain.Session, string, error) {
			return &domain.Session{ID: "sess-1", UserID: u.ID, ExpiresAt: sessionExpiry}, "signed-ref", nil
		},
	}
	h := newAccountHandler(accounts, sessions)

	c, rec := newContext(http.MethodGet, "/accounts/verify-email/tok-1/", "", nil, "")
	c.SetParamNames("token")
	c.SetParamValues("tok-1")
	if err := h.VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	ck := sessionCookie(t, rec)
	if ck == nil || ck.Value != "signed-ref" || !ck.HttpOnly || !ck.Secure {
		t.Fatalf("session cookie not set correctly: %+v", ck)
	}
}

func TestAccountHandler_VerifyEmail_FailureIsGeneric(t *testing.T) {
	accounts := &stubAccountService{
		activateFn: func(context.Context, string) (*domain.User, error) { return nil, domain.ErrTokenNotFound },
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	c, rec := newContext(http.MethodGet, "/accounts/verify-email/x/", "", nil, "")
	c.SetParamNames("token")
	c.SetParamValues("x")
	if err := h.VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound || strings.TrimSpace(rec.Body.String()) != `{"success":false}` {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if sessionCookie(t, rec) != nil {
		t.Fatalf("failed verification must not sign in")
	}
}

func TestAccountHandler_VerifyEmail_LoginFailureStillSucceeds(t *testing.T) {
	accounts := &stubAccountService{
		activateFn: func(context.Context, string) (*domain.User, error) { return &domain.User{ID: "user-1", IsActive: true}, nil },
	}
	sessions := &stubSessionService{
		establishFn: func(context.Context, *domain.User) (*domain.Session, string, error) {
			return nil, "", errors.New("redis down")
		},
	}
	h := newAccountHandler(accounts, sessions)

	c, rec := newContext(http.MethodGet, "/accounts/verify-email/tok/", "", nil, "")
	if err := h.VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatalf("no cookie expected without a session")
	}
}

func TestAccountHandler_ResendActivation_Accepted(t *testing.T) {
	var asked string
	accounts := &stubAccountService{
		resendFn: func(_ context.Context, email string) error { asked = email; return nil },
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	c, rec := newContext(http.MethodPost, "/accounts/verify-email/resend/", "application/json", jsonBody(`{"email":"nobody@expo.example"}`), "")
	if err := h.ResendActivation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted || asked != "nobody@expo.example" {
		t.Fatalf("unexpected response %d for %q", rec.Code, asked)
	}
}

func TestAccountHandler_Login(t *testing.T) {
	sessions := &stubSessionService{
		loginFn: func(_ context.Context, email, password string) (*domain.Session, string, *domain.User, error) {
			if password != "correct-horse" {
				return nil, "", nil, domain.ErrInvalidCredentials
			}
			return &domain.Session{ID: "sess-1", ExpiresAt: sessionExpiry}, "signed-ref", &domain.User{ID: "user-1", Email: email}, nil
		},
	}
	h := newAccountHandler(&stubAccountService{}, sessions)

	c, rec := newContext(http.MethodPost, "/accounts/login/", "application/json", jsonBody(`{"email":"a@expo.example","password":"correct-horse"}`), "")
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ck := sessionCookie(t, rec); ck == nil || ck.Value != "signed-ref" {
		t.Fatalf("cookie not set: %+v", ck)
	}

	c, _ = newContext(http.MethodPost, "/accounts/login/", "application/json", jsonBody(`{"email":"a@expo.example","password":"wrong"}`), "")
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountHandler_Logout_ClearsCookie(t *testing.T) {
	sessions := &stubSessionService{}
	h := newAccountHandler(&stubAccountService{}, sessions)

	c, rec := newContext(http.MethodPost, "/accounts/logout/", "", nil, "user-1")
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.loggedOut) != 1 || sessions.loggedOut[0] != "sess-user-1" {
		t.Fatalf("session not closed: %v", sessions.loggedOut)
	}
	if ck := sessionCookie(t, rec); ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", ck)
	}
}

func TestAccountHandler_RequestEmailChange(t *testing.T) {
	var gotUser, gotEmail string
	accounts := &stubAccountService{
		requestFn: func(_ context.Context, userID, password, newEmail string) error {
			gotUser, gotEmail = userID, newEmail
			return nil
		},
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	c, rec := newContext(http.MethodPost, "/accounts/email/change/", "application/json",
		jsonBody(`{"current_password":"correct-horse","new_email":"new@expo.example"}`), "user-1")
	if err := h.RequestEmailChange(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted || gotUser != "user-1" || gotEmail != "new@expo.example" {
		t.Fatalf("unexpected: %d %s %s", rec.Code, gotUser, gotEmail)
	}
}

func TestAccountHandler_ConfirmEmailChange(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		wantErr error
	}{
		{"success", nil, http.StatusOK, nil},
		{"unknown token", domain.ErrTokenNotFound, http.StatusNotFound, nil},
		{"address claimed meanwhile", domain.ErrEmailTaken, 0, domain.ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			accounts := &stubAccountService{
				confirmFn: func(_ context.Context, userID, token string) (*domain.User, error) {
					if tc.err != nil {
						return nil, tc.err
					}
					return &domain.User{ID: userID, Email: "new@expo.example"}, nil
				},
			}
			h := newAccountHandler(accounts, &stubSessionService{})

			c, rec := newContext(http.MethodGet, "/accounts/email/verify/tok/", "", nil, "user-1")
			err := h.ConfirmEmailChange(c)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestAccountHandler_ProfileRequiresSession(t *testing.T) {
	h := newAccountHandler(&stubAccountService{}, &stubSessionService{})

	c, _ := newContext(http.MethodGet, "/accounts/update/", "", nil, "")
	if err := h.GetProfile(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	accounts := &stubAccountService{
		updateProfileF: func(_ context.Context, userID string, in ports.ProfileInput) (*ports.ProfileView, error) {
			if in.Profile.BoothName != "Sato Ceramics" {
				t.Fatalf("booth name not forwarded: %+v", in.Profile)
			}
			return &ports.ProfileView{User: &domain.User{ID: userID, BoothName: in.Profile.BoothName}, FlyerURL: "https://files.test/f"}, nil
		},
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	body := `{"full_name":"Hanako Sato","phone":"03","postal_code":"100","address":"Chiyoda","booth_name":"Sato Ceramics"}`
	c, rec := newContext(http.MethodPut, "/accounts/update/", "application/json", jsonBody(body), "user-1")
	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"flyer_url":"https://files.test/f"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAccountHandler_SignUp_RejectsPasswordOverBcryptLimit(t *testing.T) {
	accounts := &stubAccountService{
		signUpFn: func(context.Context, ports.SignUpInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	long := strings.Repeat("a", 80)
	body := strings.ReplaceAll(signupJSON, "correct-horse", long)
	c, _ := newContext(http.MethodPost, "/accounts/signup/", "application/json", jsonBody(body), "")
	err := h.SignUp(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "password") {
		t.Fatalf("expected the password field to be named in %q", err.Error())
	}
}

func TestAccountHandler_ChangePassword_KeepsCurrentSession(t *testing.T) {
	var got ports.PasswordChangeInput
	accounts := &stubAccountService{
		changePassFn: func(_ context.Context, userID, current string, in ports.PasswordChangeInput) error {
			if userID != "user-1" || current != "correct-horse" {
				t.Fatalf("unexpected call: %s %s", userID, current)
			}
			got = in
			return nil
		},
	}
	sessions := &stubSessionService{}
	h := newAccountHandler(accounts, sessions)

	c, rec := newContext(http.MethodPost, "/accounts/password/change/", "application/json",
		jsonBody(`{"current_password":"correct-horse","new_password":"battery-staple","new_password_confirm":"battery-staple"}`), "user-1")
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got.NewPassword != "battery-staple" || got.NewPasswordConf != "battery-staple" {
		t.Fatalf("unexpected input: %+v", got)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != [2]string{"user-1", "sess-user-1"} {
		t.Fatalf("other sessions must be revoked keeping the current one: %v", sessions.revoked)
	}
}

func TestAccountHandler_ChangePassword_WrongCurrentPassword(t *testing.T) {
	accounts := &stubAccountService{
		changePassFn: func(context.Context, string, string, ports.PasswordChangeInput) error {
			return domain.ErrInvalidCredentials
		},
	}
	sessions := &stubSessionService{}
	h := newAccountHandler(accounts, sessions)

	c, _ := newContext(http.MethodPost, "/accounts/password/change/", "application/json",
		jsonBody(`{"current_password":"nope","new_password":"battery-staple","new_password_confirm":"battery-staple"}`), "user-1")
	if err := h.ChangePassword(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(sessions.revoked) != 0 {
		t.Fatalf("no session may be revoked on failure")
	}
}

func TestAccountHandler_RequestPasswordReset_Accepted(t *testing.T) {
	var gotEmail string
	accounts := &stubAccountService{
		requestResetFn: func(_ context.Context, email string) error {
			gotEmail = email
			return nil
		},
	}
	h := newAccountHandler(accounts, &stubSessionService{})

	c, rec := newContext(http.MethodPost, "/accounts/password/reset/", "application/json", jsonBody(`{"email":"a@expo.example"}`), "")
	if err := h.RequestPasswordReset(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted || gotEmail != "a@expo.example" {
		t.Fatalf("unexpected: %d %q", rec.Code, gotEmail)
	}
}

func TestAccountHandler_CheckPasswordReset(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"live":    {nil, http.StatusOK},
		"expired": {domain.ErrTokenNotFound, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			accounts := &stubAccountService{
				checkResetFn: func(_ context.Context, token string) error {
					if token != "tok-1" {
						t.Fatalf("unexpected token %q", token)
					}
					return tc.err
				},
			}
			h := newAccountHandler(accounts, &stubSessionService{})

			c, rec := newContext(http.MethodGet, "/accounts/password/reset/tok-1/", "", nil, "")
			c.SetParamNames("token")
			c.SetParamValues("tok-1")
			if err := h.CheckPasswordReset(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestAccountHandler_ResetPassword(t *testing.T) {
	const body = `{"new_password":"battery-staple","new_password_confirm":"battery-staple"}`

	t.Run("success revokes every session", func(t *testing.T) {
		accounts := &stubAccountService{
			resetFn: func(_ context.Context, token string, in ports.PasswordChangeInput) (*domain.User, error) {
				if token != "tok-1" || in.NewPassword != "battery-staple" {
					t.Fatalf("unexpected call: %s %+v", token, in)
				}
				return &domain.User{ID: "user-7"}, nil
			},
		}
		sessions := &stubSessionService{}
		h := newAccountHandler(accounts, sessions)

		c, rec := newContext(http.MethodPost, "/accounts/password/reset/tok-1/", "application/json", jsonBody(body), "")
		c.SetParamNames("token")
		c.SetParamValues("tok-1")
		if err := h.ResetPassword(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":true`) {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
		if len(sessions.revoked) != 1 || sessions.revoked[0] != [2]string{"user-7", ""} {
			t.Fatalf("all sessions must be revoked: %v", sessions.revoked)
		}
	})

	t.Run("dead link is generic", func(t *testing.T) {
		accounts := &stubAccountService{
			resetFn: func(context.Context, string, ports.PasswordChangeInput) (*domain.User, error) {
				return nil, domain.ErrTokenNotFound
			},
		}
		h := newAccountHandler(accounts, &stubSessionService{})

		c, rec := newContext(http.MethodPost, "/accounts/password/reset/x/", "application/json", jsonBody(body), "")
		c.SetParamNames("token")
		c.SetParamValues("x")
		if err := h.ResetPassword(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		accounts := &stubAccountService{
			resetFn: func(context.Context, string, ports.PasswordChangeInput) (*domain.User, error) {
				t.Fatalf("service must not be called")
				return nil, nil
			},
		}
		h := newAccountHandler(accounts, &stubSessionService{})

		c, _ := newContext(http.MethodPost, "/accounts/password/reset/x/", "application/json",
			jsonBody(`{"new_password":"battery-staple","new_password_confirm":"other-pass"}`), "")
		if err := h.ResetPassword(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}
