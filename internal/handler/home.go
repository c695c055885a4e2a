package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/session"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Home renders the landing page.
func Home(sessions *session.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, sessions, http.StatusOK, "home", nil)
	}
}
