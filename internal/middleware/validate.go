package middleware

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/validator"
)

// ValidateMovie schema-checks a movie form submission before persistence.
// Every field is required; year must be an integer and rating a number.
// Failures reject the request with 400 and no record is created or
// updated.
func ValidateMovie(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := validator.New()
		v.Check(strings.TrimSpace(c.FormValue("title")) != "", "title", "must be provided")
		v.Check(strings.TrimSpace(c.FormValue("director")) != "", "director", "must be provided")
		v.Check(strings.TrimSpace(c.FormValue("stars")) != "", "stars", "must be provided")
		v.Check(strings.TrimSpace(c.FormValue("description")) != "", "description", "must be provided")
		if year := strings.TrimSpace(c.FormValue("year")); year == "" {
			v.AddError("year", "must be provided")
		} else if _, err := strconv.Atoi(year); err != nil {
			v.AddError("year", "must be an integer")
		}
		if rating := strings.TrimSpace(c.FormValue("rating")); rating == "" {
			v.AddError("rating", "must be provided")
		} else if _, err := strconv.ParseFloat(rating, 64); err != nil {
			v.AddError("rating", "must be a number")
		}
		if !v.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, joinErrors(v))
		}
		return next(c)
	}
}

// ValidateReview schema-checks a review form submission: a numeric rating
// (decimals allowed, same as movie ratings) and a non-empty body are
// required.
func ValidateReview(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := validator.New()
		if rating := strings.TrimSpace(c.FormValue("rating")); rating == "" {
			v.AddError("rating", "must be provided")
		} else if _, err := strconv.ParseFloat(rating, 64); err != nil {
			v.AddError("rating", "must be a number")
		}
		v.Check(strings.TrimSpace(c.FormValue("body")) != "", "body", "must be provided")
		if !v.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, joinErrors(v))
		}
		return next(c)
	}
}

// joinErrors flattens the check map into a single stable message for the
// error page.
func joinErrors(v *validator.Validator) string {
	parts := make([]string, 0, len(v.Errors))
	for field, msg := range v.Errors {
		parts = append(parts, field+" "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
