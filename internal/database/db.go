package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema holds the idempotent bootstrap statements.  The two ON DELETE
// CASCADE foreign keys are the integrity mechanism for movie deletion: no
// review or image row can outlive its movie regardless of which code path
// removes the movie row.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS movies (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		director    VARCHAR(255) NOT NULL,
		stars       VARCHAR(255) NOT NULL,
		year        INT          NOT NULL,
		rating      DOUBLE       NOT NULL,
		description TEXT         NOT NULL,
		author_id   BIGINT UNSIGNED NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_movies_author (author_id),
		CONSTRAINT fk_movies_author FOREIGN KEY (author_id) REFERENCES users (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS movie_images (
		id       BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id BIGINT UNSIGNED NOT NULL,
		url      VARCHAR(512) NOT NULL,
		filename VARCHAR(255) NOT NULL,
		position INT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_movie_images_filename (filename),
		KEY idx_movie_images_movie (movie_id),
		CONSTRAINT fk_movie_images_movie FOREIGN KEY (movie_id)
			REFERENCES movies (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id   BIGINT UNSIGNED NOT NULL,
		author_id  BIGINT UNSIGNED NOT NULL,
		rating     DOUBLE NOT NULL,
		body       TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_reviews_movie (movie_id),
		KEY idx_reviews_author (author_id),
		CONSTRAINT fk_reviews_movie FOREIGN KEY (movie_id)
			REFERENCES movies (id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_author FOREIGN KEY (author_id) REFERENCES users (id)
	) ENGINE=InnoDB`,
}

// Migrate creates the application tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
