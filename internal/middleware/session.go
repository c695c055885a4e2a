// Package middleware provides shared request processing: session-to-user
// resolution, login enforcement, movie ownership checks and form
// validation.  Guards never mutate state; they redirect with a flash
// notice or reject with a client error before the handler body runs.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/model"
	"github.com/qmdb/movie-reviews/internal/session"
)

// UserStore is the slice of the user repository the middleware needs.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// LoadUser resolves the session cookie into a model.User and stores it in
// the Echo context under "user" and "user_id" for handlers and templates.
// It never fails the request: a stale session simply renders the page as a
// guest.
func LoadUser(sessions *session.Manager, users UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, ok := sessions.UserID(c); ok {
				ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
				u, err := users.GetByID(ctx, id)
				cancel()
				if err == nil {
					c.Set("user", u)
					c.Set("user_id", u.ID)
				}
			}
			return next(c)
		}
	}
}

// RequireLogin redirects guests to the login page with an error flash.
func RequireLogin(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get("user_id").(uint64); !ok {
				sessions.Flash(c, "error", "You must be signed in first!")
				return c.Redirect(http.StatusFound, "/login")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user loaded by LoadUser, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get("user").(model.User)
	return u, ok
}
