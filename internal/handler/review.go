package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/model"
	"github.com/qmdb/movie-reviews/internal/repository"
	"github.com/qmdb/movie-reviews/internal/session"
)

// ReviewHandler bundles the dependencies of the review endpoints.
type ReviewHandler struct {
	Reviews  ReviewStore
	Movies   MovieStore
	Sessions *session.Manager
}

func NewReviewHandler(reviews ReviewStore, movies MovieStore, sessions *session.Manager) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Movies: movies, Sessions: sessions}
}

// Create handles POST /movies/:id/reviews (auth required, validated
// form).  The target movie is looked up first: a miss redirects to the
// listing with a not-found notice instead of failing mid-write.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
	movieID, err := parseID(c, "id")
	if err != nil {
		h.Sessions.Flash(c, "error", "Sorry, page not found!")
		return c.Redirect(http.StatusFound, "/movies")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Movies.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, "/movies")
		}
		return err
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("rating")), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be a number")
	}
	rev := model.Review{
		MovieID:  movieID,
		AuthorID: userID,
		Rating:   rating,
		Body:     strings.TrimSpace(c.FormValue("body")),
	}
	if err := h.Reviews.Create(ctx, &rev); err != nil {
		// The movie can vanish between the lookup and the insert; the
		// foreign key turns that race into a not-found.
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, "/movies")
		}
		return err
	}
	h.Sessions.Flash(c, "success", "Posted!")
	return c.Redirect(http.StatusFound, moviePath(movieID))
}

// Delete handles DELETE /movies/:id/reviews/:reviewId (auth required).
// Ownership is checked once, inside the repository, in the same
// transaction as the delete; a non-owner is redirected with a
// permission-denied notice and nothing is mutated.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
	movieID, err := parseID(c, "id")
	if err != nil {
		h.Sessions.Flash(c, "error", "Sorry, page not found!")
		return c.Redirect(http.StatusFound, "/movies")
	}
	reviewID, err := parseID(c, "reviewId")
	if err != nil {
		h.Sessions.Flash(c, "error", "Sorry, page not found!")
		return c.Redirect(http.StatusFound, moviePath(movieID))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Reviews.DeleteByIDAndAuthor(ctx, reviewID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			h.Sessions.Flash(c, "error", "You don't have the permission!")
			return c.Redirect(http.StatusFound, moviePath(movieID))
		case errors.Is(err, repository.ErrNotFound):
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, moviePath(movieID))
		default:
			return err
		}
	}
	h.Sessions.Flash(c, "success", "Deleted!")
	return c.Redirect(http.StatusFound, moviePath(movieID))
}
