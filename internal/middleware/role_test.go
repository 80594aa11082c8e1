package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role any) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestRequireRole(t *testing.T) {
	staff := RequireRole("Technician", "Admin")

	cases := []struct {
		name string
		role any
		want int
	}{
		{"allowed technician", "Technician", http.StatusOK},
		{"allowed admin", "Admin", http.StatusOK},
		{"student rejected", "Student", http.StatusForbidden},
		{"unknown role", "Janitor", http.StatusForbidden},
		{"missing role", nil, http.StatusForbidden},
		{"non-string role", 42, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := runWithRole(t, staff, tc.role)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestSubjectKey(t *testing.T) {
	e := echo.New()
	mk := func(v any) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if v != nil {
			c.Set("user_id", v)
		}
		return c
	}

	if got := subjectKey(mk(nil)); got != "guest" {
		t.Errorf("no claims: got %q", got)
	}
	// JWT claims decode numbers as float64.
	if got := subjectKey(mk(float64(17))); got != "17" {
		t.Errorf("float64 claim: got %q", got)
	}
	if got := subjectKey(mk("abc")); got != "abc" {
		t.Errorf("string claim: got %q", got)
	}
	if got := subjectKey(mk("")); got != "guest" {
		t.Errorf("empty string claim: got %q", got)
	}
}
