package handler_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func registerForm(username, email, password string) *strings.Reader {
	form := url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	}
	return strings.NewReader(form.Encode())
}

func TestRegisterLogsUserIn(t *testing.T) {
	e, store := newTestApp(t)

	rec := do(e, http.MethodPost, "/register",
		registerForm("alice", "alice@example.com", "secret123"), echo.MIMEApplicationForm, nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/movies" {
		t.Fatalf("%d -> %s, want redirect to /movies", rec.Code, rec.Header().Get("Location"))
	}
	if len(store.users) != 1 {
		t.Fatalf("user count = %d", len(store.users))
	}

	// The registration response carries a live session: a protected page
	// renders instead of redirecting to /login.
	cookies := rec.Result().Cookies()
	page := do(e, http.MethodGet, "/movies/new", nil, "", cookies)
	if page.Code != http.StatusOK {
		t.Errorf("protected page after register: status = %d", page.Code)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e, store := newTestApp(t)
	store.seedUser("alice", "secret123")

	rec := do(e, http.MethodPost, "/register",
		registerForm("alice", "other@example.com", "secret123"), echo.MIMEApplicationForm, nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/register" {
		t.Fatalf("%d -> %s, want redirect back to /register", rec.Code, rec.Header().Get("Location"))
	}
	if len(store.users) != 1 {
		t.Errorf("duplicate user created: %d users", len(store.users))
	}
}

func TestRegisterValidation(t *testing.T) {
	e, store := newTestApp(t)

	tests := []struct {
		name                      string
		username, email, password string
	}{
		{"missing username", "", "a@example.com", "secret123"},
		{"bad email", "alice", "not-an-email", "secret123"},
		{"short password", "alice", "a@example.com", "123"},
	}
	for _, tt := range tests {
		rec := do(e, http.MethodPost, "/register",
			registerForm(tt.username, tt.email, tt.password), echo.MIMEApplicationForm, nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/register" {
			t.Errorf("%s: %d -> %s", tt.name, rec.Code, rec.Header().Get("Location"))
		}
	}
	if len(store.users) != 0 {
		t.Errorf("users created from invalid submissions: %d", len(store.users))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e, store := newTestApp(t)
	store.seedUser("alice", "secret123")

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"secret123"}},
	} {
		rec := do(e, http.MethodPost, "/login",
			strings.NewReader(form.Encode()), echo.MIMEApplicationForm, nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Errorf("%v: %d -> %s, want redirect back to /login", form, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestLogoutEndsSession(t *testing.T) {
	e, store := newTestApp(t)
	store.seedUser("alice", "secret123")
	cookies := login(t, e, "alice", "secret123")

	rec := do(e, http.MethodGet, "/logout", nil, "", cookies)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/movies" {
		t.Fatalf("%d -> %s", rec.Code, rec.Header().Get("Location"))
	}

	// The old cookie no longer grants access to protected pages.
	page := do(e, http.MethodGet, "/movies/new", nil, "", cookies)
	if page.Code != http.StatusFound || page.Header().Get("Location") != "/login" {
		t.Errorf("protected page after logout: %d -> %s", page.Code, page.Header().Get("Location"))
	}
}
