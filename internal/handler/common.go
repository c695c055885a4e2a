// Package handler defines the HTTP handlers of the site: one handler per
// (resource, operation) pair.  Each handler body runs after the route's
// validation and authorization middleware, talks to the persistence layer
// (and, for movies, the media store), then redirects with a flash notice.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/middleware"
	"github.com/qmdb/movie-reviews/internal/model"
	"github.com/qmdb/movie-reviews/internal/session"
)

// MovieStore is the slice of the movie repository handlers depend on.
// Tests substitute an in-memory implementation.
type MovieStore interface {
	List(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, id uint64, m model.Movie, addImages []model.Image, removeFilenames []string) error
	Delete(ctx context.Context, id uint64) ([]string, error)
}

// ReviewStore is the slice of the review repository handlers depend on.
type ReviewStore interface {
	Create(ctx context.Context, rev *model.Review) error
	DeleteByIDAndAuthor(ctx context.Context, id, authorID uint64) error
}

// UserStore is the slice of the user repository handlers depend on.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, cost int) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the request, mirroring the
// timeout every repository call runs under.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the authenticated user id placed in the context by
// the session middleware.  Routes calling this are behind RequireLogin, so
// a miss indicates a wiring bug rather than a guest.
func getUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok
}

// parseID converts a route parameter into a numeric id.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// render populates the globals every view receives (current user plus
// pending flash notices) and renders the named template.
func render(c echo.Context, sessions *session.Manager, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if u, ok := middleware.CurrentUser(c); ok {
		data["CurrentUser"] = u
	}
	success, errs := sessions.PopFlashes(c)
	data["Success"] = success
	data["Error"] = errs
	return c.Render(status, name, data)
}

// moviePath builds the detail-page path for a movie id.
func moviePath(id uint64) string {
	return "/movies/" + strconv.FormatUint(id, 10)
}
