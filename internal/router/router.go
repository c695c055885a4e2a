// Package router defines how HTTP routes are registered for the site.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/qmdb/movie-reviews/internal/handler"
	"github.com/qmdb/movie-reviews/internal/middleware"
	"github.com/qmdb/movie-reviews/internal/session"
)

// RegisterRoutes wires every route of the site onto the provided Echo
// instance.  HTML forms can only issue GET/POST, so a method-override
// middleware promotes a `_method` form field to PUT or DELETE before
// routing, the same convention the edit and delete forms use.
func RegisterRoutes(
	e *echo.Echo,
	sessions *session.Manager,
	users middleware.UserStore,
	movies middleware.MovieAuthors,
	movieH *handler.MovieHandler,
	reviewH *handler.ReviewHandler,
	userH *handler.UserHandler,
) {
	e.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{
		Getter: echomw.MethodFromForm("_method"),
	}))
	e.Use(middleware.LoadUser(sessions, users))

	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Home(sessions))

	// User auth routes.
	e.GET("/register", userH.RegisterForm)
	e.POST("/register", userH.Register)
	e.GET("/login", userH.LoginForm)
	e.POST("/login", userH.Login)
	e.GET("/logout", userH.Logout)

	requireLogin := middleware.RequireLogin(sessions)
	requireAuthor := middleware.RequireMovieAuthor(sessions, movies)

	// Movie routes.  /movies/new must be registered before /movies/:id so
	// the path literal wins over the parameter.
	m := e.Group("/movies")
	m.GET("", movieH.Index)
	m.GET("/new", movieH.NewForm, requireLogin)
	m.POST("", movieH.Create, requireLogin, middleware.ValidateMovie)
	m.GET("/:id", movieH.Show)
	m.GET("/:id/edit", movieH.EditForm, requireLogin, requireAuthor)
	m.PUT("/:id", movieH.Update, requireLogin, requireAuthor, middleware.ValidateMovie)
	m.DELETE("/:id", movieH.Delete, requireLogin, requireAuthor)

	// Review routes.
	m.POST("/:id/reviews", reviewH.Create, requireLogin, middleware.ValidateReview)
	m.DELETE("/:id/reviews/:reviewId", reviewH.Delete, requireLogin)
}

// NewHTTPErrorHandler returns the centralized error handler: every error a
// handler returns (and every unmatched route) lands here and is rendered
// through the single generic error view showing status and message.
func NewHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := "Something went wrong"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok && s != "" {
				message = s
			} else {
				message = http.StatusText(code)
			}
		}
		if code == http.StatusNotFound {
			message = "Page Not Found"
		}
		rerr := c.Render(code, "error", map[string]any{
			"Status":  code,
			"Message": message,
		})
		if rerr != nil {
			_ = c.String(code, message)
		}
	}
}
