package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/repository"
	"github.com/qmdb/movie-reviews/internal/session"
)

// MovieAuthors is the slice of the movie repository the ownership guard
// needs.
type MovieAuthors interface {
	AuthorID(ctx context.Context, id uint64) (uint64, error)
}

// RequireMovieAuthor guards mutating movie routes: the acting user must be
// the recorded author of the movie named by the :id parameter.  A
// malformed or unknown id redirects to the listing with a not-found
// notice; a non-owner is redirected to the movie's own page with a
// permission-denied notice.  Nothing is mutated on either path.
func RequireMovieAuthor(sessions *session.Manager, movies MovieAuthors) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get("user_id").(uint64)
			if !ok {
				sessions.Flash(c, "error", "You must be signed in first!")
				return c.Redirect(http.StatusFound, "/login")
			}
			id, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				sessions.Flash(c, "error", "Sorry, page not found!")
				return c.Redirect(http.StatusFound, "/movies")
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
			authorID, err := movies.AuthorID(ctx, id)
			cancel()
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					sessions.Flash(c, "error", "Sorry, page not found!")
					return c.Redirect(http.StatusFound, "/movies")
				}
				return err
			}
			if authorID != userID {
				sessions.Flash(c, "error", "Sorry, you don't have the permission!")
				return c.Redirect(http.StatusFound, "/movies/"+strconv.FormatUint(id, 10))
			}
			return next(c)
		}
	}
}
