package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qmdb/movie-reviews/internal/config"
	"github.com/qmdb/movie-reviews/internal/database"
	"github.com/qmdb/movie-reviews/internal/handler"
	"github.com/qmdb/movie-reviews/internal/media"
	"github.com/qmdb/movie-reviews/internal/queue"
	"github.com/qmdb/movie-reviews/internal/repository"
	"github.com/qmdb/movie-reviews/internal/router"
	"github.com/qmdb/movie-reviews/internal/session"
	"github.com/qmdb/movie-reviews/internal/view"
)

func main() {
	cfg := config.Load() // Load environment config (.env outside prod)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("database: %v", err)
	}
	cancel()

	redisClient, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("redis: %v", err) // sessions are load-bearing
	}
	sessions := session.NewManager(redisClient)

	images, err := media.NewMinioStore(cfg.MediaEndpoint, cfg.MediaAccessKey,
		cfg.MediaSecretKey, cfg.MediaBucket, cfg.MediaPublicURL, cfg.MediaUseSSL)
	if err != nil {
		log.Fatalf("media store: %v", err)
	}

	// Background consumer retrying failed media-store deletes.
	go queue.StartImageCleanupConsumer(images)

	userRepo := repository.NewUserRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	reviewRepo := repository.NewReviewRepo(db)

	movieH := handler.NewMovieHandler(movieRepo, images, sessions)
	reviewH := handler.NewReviewHandler(reviewRepo, movieRepo, sessions)
	userH := handler.NewUserHandler(userRepo, sessions, cfg.BcryptCost)

	e := echo.New()
	renderer, err := view.New()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	e.Renderer = renderer
	e.HTTPErrorHandler = router.NewHTTPErrorHandler()
	router.RegisterRoutes(e, sessions, userRepo, movieRepo, movieH, reviewH, userH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
