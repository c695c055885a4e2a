package handler_test

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestPostReviewAppendsExactlyOne(t *testing.T) {
	e, store := newTestApp(t)
	alice := store.seedUser("alice", "secret123")
	store.seedUser("bob", "secret123")
	id := store.seedMovie(alice, "Alien")
	path := fmt.Sprintf("/movies/%d", id)
	cookies := login(t, e, "bob", "secret123")

	form := url.Values{"rating": {"8"}, "body": {"a classic"}}
	rec := do(e, http.MethodPost, path+"/reviews",
		strings.NewReader(form.Encode()), echo.MIMEApplicationForm, cookies)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != path {
		t.Fatalf("%d -> %s", rec.Code, rec.Header().Get("Location"))
	}
	if n := store.reviewCountFor(id); n != 1 {
		t.Errorf("review count = %d, want 1", n)
	}

	// The review shows up on the movie page with its author's name.
	show := do(e, http.MethodGet, path, nil, "", cookies)
	page := show.Body.String()
	if !strings.Contains(page, "a classic") || !strings.Contains(page, "bob") {
		t.Error("posted review not rendered on the movie page")
	}
}

func TestPostReviewAcceptsDecimalRating(t *testing.T) {
	e, store := newTestApp(t)
	alice := store.seedUser("alice", "secret123")
	id := store.seedMovie(alice, "Alien")
	path := fmt.Sprintf("/movies/%d", id)
	cookies := login(t, e, "alice", "secret123")

	form := url.Values{"rating": {"8.5"}, "body": {"half points count"}}
	rec := do(e, http.MethodPost, path+"/reviews",
		strings.NewReader(form.Encode()), echo.MIMEApplicationForm, cookies)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != path {
		t.Fatalf("%d -> %s, want redirect to the movie", rec.Code, rec.Header().Get("Location"))
	}
	var got float64
	for _, r := range store.reviews {
		got = r.Rating
	}
	if n := store.reviewCountFor(id); n != 1 || got != 8.5 {
		t.Errorf("stored %d reviews with rating %v, want one rated 8.5", n, got)
	}
}

func TestPostReviewRequiresLogin(t *testing.T) {
	e, store := newTestApp(t)
	alice := store.seedUser("alice", "secret123")
	id := store.seedMovie(alice, "Alien")

	form := url.Values{"rating": {"8"}, "body": {"drive-by"}}
	rec := do(e, http.MethodPost, fmt.Sprintf("/movies/%d/reviews", id),
		strings.NewReader(form.Encode()), echo.MIMEApplicationForm, nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("%d -> %s, want redirect to /login", rec.Code, rec.Header().Get("Location"))
	}
	if n := store.reviewCountFor(id); n != 0 {
		t.Errorf("review created for guest: %d", n)
	}
}

func TestPostReviewValidation(t *testing.T) {
	e, store := newTestApp(t)
	alice := store.seedUser("alice", "secret123")
	id := store.seedMovie(alice, "Alien")
	cookies := login(t, e, "alice", "secret123")

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing rating", url.Values{"body": {"no rating"}}},
		{"missing body", url.Values{"rating": {"8"}}},
		{"non-numeric rating", url.Values{"rating": {"ten"}, "body": {"x"}}},
	}
	for _, tt := range tests {
		rec := do(e, http.MethodPost, fmt.Sprintf("/movies/%d/reviews", id),
			strings.NewReader(tt.form.Encode()), echo.MIMEApplicationForm, cookies)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
	}
	if n := store.reviewCountFor(id); n != 0 {
		t.Errorf("reviews created from invalid submissions: %d", n)
	}
}

func TestPostReviewOnMissingMovie(t *testing.T) {
	e, store := newTestApp(t)
	store.seedUser("alice", "secret123")
	cookies := login(t, e, "alice", "secret123")

	form := url.Values{"rating": {"8"}, "body": {"ghost"}}
	rec := do(e, http.MethodPost, "/movies/42/reviews",
		strings.NewReader(form.Encode()), echo.MIMEApplicationForm, cookies)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/movies" {
		t.Fatalf("%d -> %s, want redirect to /movies", rec.Code, rec.Header().Get("Location"))
	}
	if len(store.reviews) != 0 {
		t.Error("review created for a missing movie")
	}
}

func TestOwnerDeletesOwnReview(t *testing.T) {
	e, store := newTestApp(t)
	alice := store.seedUser("alice", "secret123")
	bob := store.seedUser("bob", "secret123")
	movieID := store.seedMovie(alice, "Alien")
	reviewID := store.seedReview(movieID, bob, "mine")
	path := fmt.Sprintf("/movies/%d", movieID)
	cookies := login(t, e, "bob", "secret123")

	rec := do(e, http.MethodDelete, fmt.Sprintf("%s/reviews/%d", path, reviewID), nil, "", cookies)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != path {
		t.Fatalf("%d -> %s", rec.Code, rec.Header().Get("Location"))
	}
	if _, ok := store.reviews[reviewID]; ok {
		t.Error("review not deleted by its owner")
	}
	if n := store.reviewCountFor(movieID); n != 0 {
		t.Errorf("movie still references %d reviews", n)
	}
}

func TestNonOwnerCannotDeleteReview(t *testing.T) {
	e, store := newTestApp(t)
	alice := store.seedUser("alice", "secret123")
	bob := store.seedUser("bob", "secret123")
	movieID := store.seedMovie(alice, "Alien")
	reviewID := store.seedReview(movieID, bob, "bob's take")
	path := fmt.Sprintf("/movies/%d", movieID)
	cookies := login(t, e, "alice", "secret123")

	rec := do(e, http.MethodDelete, fmt.Sprintf("%s/reviews/%d", path, reviewID), nil, "", cookies)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != path {
		t.Fatalf("%d -> %s", rec.Code, rec.Header().Get("Location"))
	}
	if _, ok := store.reviews[reviewID]; !ok {
		t.Error("review deleted by a non-owner")
	}
}
