package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func gateContext(userID string, staff bool) (echo.Context, *httptest.ResponseRecorder, *echo.Echo) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(KeyUserID, userID)
		c.Set(KeyIsStaff, staff)
	}
	return c, rec, e
}

func run(t *testing.T, mw echo.MiddlewareFunc, c echo.Context, e *echo.Echo) bool {
	t.Helper()
	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return called
}

func TestRequireAnonymous(t *testing.T) {
	c, rec, e := gateContext("", false)
	if !run(t, RequireAnonymous(), c, e) {
		t.Fatalf("anonymous caller refused")
	}

	c, rec, e = gateContext("user-1", false)
	if run(t, RequireAnonymous(), c, e) {
		t.Fatalf("signed-in caller let through")
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/" {
		t.Fatalf("expected Location /, got %q", loc)
	}
}

func TestRequireAuthenticated(t *testing.T) {
	c, rec, e := gateContext("", false)
	if run(t, RequireAuthenticated(), c, e) {
		t.Fatalf("anonymous caller let through")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	c, _, e = gateContext("user-1", false)
	if !run(t, RequireAuthenticated(), c, e) {
		t.Fatalf("signed-in caller refused")
	}
}

func TestRequireStaff(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		staff  bool
		allow  bool
		code   int
	}{
		{"anonymous", "", false, false, http.StatusUnauthorized},
		{"exhibitor", "user-1", false, false, http.StatusForbidden},
		{"staff", "user-2", true, true, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec, e := gateContext(tc.userID, tc.staff)
			if got := run(t, RequireStaff(), c, e); got != tc.allow {
				t.Fatalf("allow = %v, want %v", got, tc.allow)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}
