package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Passwords are never stored in plain text; only the bcrypt hash
// is persisted.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username (unique)
	Email        string    // users.email (unique)
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}

// Image is one uploaded picture attached to a movie.  URL is where the
// object is served from; Filename is the object-store key and doubles as
// the deletable handle for later removal.
type Image struct {
	ID       uint64 // movie_images.id
	MovieID  uint64 // movie_images.movie_id
	URL      string // movie_images.url
	Filename string // movie_images.filename
	Position int    // movie_images.position (display order)
}

// Review is a single user review of a movie.  AuthorName is not a column;
// it is joined from `users` at read time so a renamed user can never leave
// a stale copy behind.
type Review struct {
	ID         uint64    // reviews.id
	MovieID    uint64    // reviews.movie_id
	AuthorID   uint64    // reviews.author_id
	AuthorName string    // joined from users.username
	Rating     float64   // reviews.rating
	Body       string    // reviews.body
	CreatedAt  time.Time // reviews.created_at
}

// Movie mirrors the `movies` table plus its populated relations.  Images
// and Reviews are filled in by the repository when a single movie is
// fetched; List leaves Reviews empty and loads at most the cover image.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	Director    string    // movies.director
	Stars       string    // movies.stars
	Year        int       // movies.year
	Rating      float64   // movies.rating
	Description string    // movies.description
	AuthorID    uint64    // movies.author_id
	AuthorName  string    // joined from users.username
	Images      []Image   // ordered by position
	Reviews     []Review  // ordered by creation
	CreatedAt   time.Time // movies.created_at
	UpdatedAt   time.Time // movies.updated_at
}
