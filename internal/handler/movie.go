package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/media"
	"github.com/qmdb/movie-reviews/internal/model"
	"github.com/qmdb/movie-reviews/internal/queue"
	"github.com/qmdb/movie-reviews/internal/repository"
	queue_publisher "github.com/qmdb/movie-reviews/internal/service"
	"github.com/qmdb/movie-reviews/internal/session"
)

// MovieHandler bundles the dependencies of the movie endpoints.
type MovieHandler struct {
	Movies   MovieStore
	Media    media.Store
	Sessions *session.Manager

	// PublishCleanup hands a failed media-store delete to the background
	// retry queue.  Tests substitute a recorder.
	PublishCleanup func(ctx context.Context, ev queue.ImageCleanupEvent) error
}

func NewMovieHandler(movies MovieStore, mediaStore media.Store, sessions *session.Manager) *MovieHandler {
	return &MovieHandler{
		Movies:         movies,
		Media:          mediaStore,
		Sessions:       sessions,
		PublishCleanup: queue_publisher.PublishImageCleanup,
	}
}

// Index handles GET /movies: the full set of movies, unconditionally.
func (h *MovieHandler) Index(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Movies.List(ctx)
	if err != nil {
		return err
	}
	return render(c, h.Sessions, http.StatusOK, "movies/index", map[string]any{"Movies": movies})
}

// NewForm handles GET /movies/new (auth required).
func (h *MovieHandler) NewForm(c echo.Context) error {
	return render(c, h.Sessions, http.StatusOK, "movies/new", nil)
}

// Show handles GET /movies/:id.  A malformed or unknown id redirects to
// the listing with a not-found notice rather than raising a hard failure.
func (h *MovieHandler) Show(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		h.Sessions.Flash(c, "error", "Sorry, page not found!")
		return c.Redirect(http.StatusFound, "/movies")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	movie, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, "/movies")
		}
		return err
	}
	return render(c, h.Sessions, http.StatusOK, "movies/show", map[string]any{"Movie": movie})
}

// Create handles POST /movies (auth required, validated multipart form).
// Images are uploaded to the media store first; the movie row and its
// image rows are then persisted together.  If persistence fails the
// uploaded objects are handed to the cleanup queue so nothing leaks.
func (h *MovieHandler) Create(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
	movie, err := h.movieFromForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	movie.AuthorID = userID

	images, err := h.uploadImages(c)
	if err != nil {
		return err
	}
	movie.Images = images

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Movies.Create(ctx, &movie); err != nil {
		// The objects are already in the media store; queue them for removal.
		for _, img := range images {
			_ = h.PublishCleanup(c.Request().Context(), queue.ImageCleanupEvent{Filename: img.Filename})
		}
		return err
	}
	h.Sessions.Flash(c, "success", "Post successfully!")
	return c.Redirect(http.StatusFound, moviePath(movie.ID))
}

// EditForm handles GET /movies/:id/edit (auth + ownership already
// enforced by middleware).
func (h *MovieHandler) EditForm(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		h.Sessions.Flash(c, "error", "Sorry, page not found!")
		return c.Redirect(http.StatusFound, "/movies")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	movie, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, "/movies")
		}
		return err
	}
	return render(c, h.Sessions, http.StatusOK, "movies/edit", map[string]any{"Movie": movie})
}

// Update handles PUT /movies/:id (auth + ownership, validated multipart
// form).  Field updates apply, new uploads append to the existing image
// sequence, and each handle listed in deleteImages is removed from the
// media store before its row goes away.  Only handles attached to this
// movie are honored; a handle naming another movie's object is ignored so
// an edit can never touch someone else's images.  One handle failing its
// media-store delete does not stop the rest; the failed handle is queued
// for retry so the record is never left pointing at a live object.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		h.Sessions.Flash(c, "error", "Sorry, page not found!")
		return c.Redirect(http.StatusFound, "/movies")
	}
	movie, err := h.movieFromForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	current, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, "/movies")
		}
		return err
	}
	owned := make(map[string]bool, len(current.Images))
	for _, img := range current.Images {
		owned[img.Filename] = true
	}

	added, err := h.uploadImages(c)
	if err != nil {
		return err
	}

	var removeFilenames []string
	if form, err := c.FormParams(); err == nil {
		for _, filename := range form["deleteImages"] {
			if owned[filename] {
				removeFilenames = append(removeFilenames, filename)
			}
		}
	}
	for _, filename := range removeFilenames {
		if err := h.Media.Delete(c.Request().Context(), filename); err != nil {
			log.Printf("movie %d: media delete %s failed: %v", id, filename, err)
			_ = h.PublishCleanup(c.Request().Context(), queue.ImageCleanupEvent{Filename: filename, MovieID: id})
		}
	}

	if err := h.Movies.Update(ctx, id, movie, added, removeFilenames); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, "/movies")
		}
		return err
	}
	h.Sessions.Flash(c, "success", "Successfully updated!")
	return c.Redirect(http.StatusFound, moviePath(id))
}

// Delete handles DELETE /movies/:id (auth + ownership).  The movie row is
// removed first and the database cascades take the review and image rows
// with it, so no review can outlive its movie regardless of how many were
// attached.  The delete returns the image handles that were attached at
// that moment; each is then released from the media store, and a failed
// release is queued for retry rather than aborting the rest.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		h.Sessions.Flash(c, "error", "Sorry, page not found!")
		return c.Redirect(http.StatusFound, "/movies")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	filenames, err := h.Movies.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Sessions.Flash(c, "error", "Sorry, page not found!")
			return c.Redirect(http.StatusFound, "/movies")
		}
		return err
	}
	for _, filename := range filenames {
		if err := h.Media.Delete(c.Request().Context(), filename); err != nil {
			log.Printf("movie %d: media delete %s failed: %v", id, filename, err)
			_ = h.PublishCleanup(c.Request().Context(), queue.ImageCleanupEvent{Filename: filename, MovieID: id})
		}
	}
	h.Sessions.Flash(c, "success", "Deleted!")
	return c.Redirect(http.StatusFound, "/movies")
}

// movieFromForm binds the validated movie fields.  The numeric parses
// cannot fail after the validation middleware, but the errors are still
// surfaced for routes wired without it.
func (h *MovieHandler) movieFromForm(c echo.Context) (model.Movie, error) {
	year, err := strconv.Atoi(strings.TrimSpace(c.FormValue("year")))
	if err != nil {
		return model.Movie{}, errors.New("year must be an integer")
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("rating")), 64)
	if err != nil {
		return model.Movie{}, errors.New("rating must be a number")
	}
	return model.Movie{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Director:    strings.TrimSpace(c.FormValue("director")),
		Stars:       strings.TrimSpace(c.FormValue("stars")),
		Year:        year,
		Rating:      rating,
		Description: strings.TrimSpace(c.FormValue("description")),
	}, nil
}

// uploadImages sends each uploaded "image" file to the media store and
// returns the (url, handle) pairs.  If an upload fails midway, the objects
// stored so far are queued for cleanup and the error is returned.
func (h *MovieHandler) uploadImages(c echo.Context) ([]model.Image, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil // no files attached
	}
	var images []model.Image
	for _, fh := range form.File["image"] {
		f, err := fh.Open()
		if err != nil {
			h.cleanupUploads(c, images)
			return nil, err
		}
		url, filename, err := h.Media.Upload(c.Request().Context(), fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
		f.Close()
		if err != nil {
			h.cleanupUploads(c, images)
			return nil, err
		}
		images = append(images, model.Image{URL: url, Filename: filename})
	}
	return images, nil
}

func (h *MovieHandler) cleanupUploads(c echo.Context, images []model.Image) {
	for _, img := range images {
		_ = h.PublishCleanup(c.Request().Context(), queue.ImageCleanupEvent{Filename: img.Filename})
	}
}
