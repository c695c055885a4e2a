package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/repository"
	"github.com/qmdb/movie-reviews/internal/session"
	"github.com/qmdb/movie-reviews/internal/utils"
	"github.com/qmdb/movie-reviews/internal/validator"
)

// UserHandler bundles the dependencies of registration, login and logout.
// Credential hashing and verification are delegated to utils (bcrypt);
// handlers only orchestrate.
type UserHandler struct {
	Users      UserStore
	Sessions   *session.Manager
	BcryptCost int
}

func NewUserHandler(users UserStore, sessions *session.Manager, bcryptCost int) *UserHandler {
	return &UserHandler{Users: users, Sessions: sessions, BcryptCost: bcryptCost}
}

// RegisterForm handles GET /register.
func (h *UserHandler) RegisterForm(c echo.Context) error {
	return render(c, h.Sessions, http.StatusOK, "users/register", nil)
}

// Register handles POST /register: create the user and immediately
// establish a logged-in session.  Any failure, duplicate username
// included, surfaces as an error flash with a redirect back to the form
// instead of a hard error page.
func (h *UserHandler) Register(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	password := c.FormValue("password")

	v := validator.New()
	v.Check(username != "", "username", "must be provided")
	v.Check(email != "", "email", "must be provided")
	v.Check(email == "" || validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(len(password) >= 6, "password", "must be at least 6 characters long")
	if !v.Valid() {
		for _, msg := range v.Errors {
			h.Sessions.Flash(c, "error", msg)
		}
		return c.Redirect(http.StatusFound, "/register")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Users.Create(ctx, username, email, password, h.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			h.Sessions.Flash(c, "error", "A user with the given username is already registered")
		case errors.Is(err, repository.ErrEmailExists):
			h.Sessions.Flash(c, "error", "A user with the given email is already registered")
		default:
			h.Sessions.Flash(c, "error", "Registration failed, please try again")
		}
		return c.Redirect(http.StatusFound, "/register")
	}
	if err := h.Sessions.Login(c, id); err != nil {
		return err
	}
	h.Sessions.Flash(c, "success", "Welcome!")
	return c.Redirect(http.StatusFound, "/movies")
}

// LoginForm handles GET /login.
func (h *UserHandler) LoginForm(c echo.Context) error {
	return render(c, h.Sessions, http.StatusOK, "users/login", nil)
}

// Login handles POST /login.  An unknown username and a wrong password
// produce the same notice so the form does not leak which usernames
// exist.
func (h *UserHandler) Login(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Invalid username or password")
			return c.Redirect(http.StatusFound, "/login")
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		h.Sessions.Flash(c, "error", "Invalid username or password")
		return c.Redirect(http.StatusFound, "/login")
	}
	if err := h.Sessions.Login(c, u.ID); err != nil {
		return err
	}
	h.Sessions.Flash(c, "success", "Welcome back, "+u.Username+"!")
	return c.Redirect(http.StatusFound, "/movies")
}

// Logout handles GET /logout: terminate the session and head back to the
// listing.
func (h *UserHandler) Logout(c echo.Context) error {
	if err := h.Sessions.Logout(c); err != nil {
		return err
	}
	h.Sessions.Flash(c, "success", "Good bye!")
	return c.Redirect(http.StatusFound, "/movies")
}
