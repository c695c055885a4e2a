package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qmdb/movie-reviews/internal/model"
)

// MovieRepo provides access to the `movies` table and its dependent
// `movie_images` rows.  Multi-row mutations (create with images, edit with
// image appends/removals) run inside a single transaction so a partial
// write can never be observed.  Review rows are owned by ReviewRepo but
// are populated here when a single movie is fetched.
type MovieRepo struct{ DB *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

// List returns all movies, newest first, each carrying its author's
// username and at most its cover image (lowest position).  There is no
// pagination or filtering; the listing page shows the full set.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT m.id, m.title, m.director, m.stars, m.year, m.rating,
		       m.description, m.author_id, u.username, m.created_at, m.updated_at
		FROM movies m
		JOIN users u ON u.id = m.author_id
		ORDER BY m.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Movie
	index := make(map[uint64]int) // movie id -> slice index, for image attach
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Director, &m.Stars, &m.Year,
			&m.Rating, &m.Description, &m.AuthorID, &m.AuthorName,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		index[m.ID] = len(out)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	// Attach cover images in a second pass.
	imgRows, err := r.DB.QueryContext(ctx, `
		SELECT i.movie_id, i.id, i.url, i.filename, i.position
		FROM movie_images i
		JOIN (SELECT movie_id, MIN(position) AS position
		      FROM movie_images GROUP BY movie_id) c
		  ON c.movie_id = i.movie_id AND c.position = i.position`)
	if err != nil {
		return nil, err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img model.Image
		if err := imgRows.Scan(&img.MovieID, &img.ID, &img.URL, &img.Filename, &img.Position); err != nil {
			return nil, err
		}
		if idx, ok := index[img.MovieID]; ok {
			out[idx].Images = append(out[idx].Images, img)
		}
	}
	return out, imgRows.Err()
}

// GetByID fetches one movie with its author username, its images ordered
// by position and its reviews ordered by creation, each review carrying
// its author's username.  ErrNotFound is returned when the id does not
// resolve.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	err := r.DB.QueryRowContext(ctx, `
		SELECT m.id, m.title, m.director, m.stars, m.year, m.rating,
		       m.description, m.author_id, u.username, m.created_at, m.updated_at
		FROM movies m
		JOIN users u ON u.id = m.author_id
		WHERE m.id = ? LIMIT 1`, id).
		Scan(&m.ID, &m.Title, &m.Director, &m.Stars, &m.Year, &m.Rating,
			&m.Description, &m.AuthorID, &m.AuthorName, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrNotFound
	}
	if err != nil {
		return model.Movie{}, err
	}

	imgRows, err := r.DB.QueryContext(ctx, `
		SELECT id, movie_id, url, filename, position
		FROM movie_images WHERE movie_id = ? ORDER BY position, id`, id)
	if err != nil {
		return model.Movie{}, err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img model.Image
		if err := imgRows.Scan(&img.ID, &img.MovieID, &img.URL, &img.Filename, &img.Position); err != nil {
			return model.Movie{}, err
		}
		m.Images = append(m.Images, img)
	}
	if err := imgRows.Err(); err != nil {
		return model.Movie{}, err
	}

	revRows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.movie_id, r.author_id, u.username, r.rating, r.body, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.movie_id = ? ORDER BY r.created_at, r.id`, id)
	if err != nil {
		return model.Movie{}, err
	}
	defer revRows.Close()
	for revRows.Next() {
		var rev model.Review
		if err := revRows.Scan(&rev.ID, &rev.MovieID, &rev.AuthorID, &rev.AuthorName,
			&rev.Rating, &rev.Body, &rev.CreatedAt); err != nil {
			return model.Movie{}, err
		}
		m.Reviews = append(m.Reviews, rev)
	}
	return m, revRows.Err()
}

// AuthorID returns the owning user id of a movie.  Used by the ownership
// middleware before any mutating movie operation.
func (r *MovieRepo) AuthorID(ctx context.Context, id uint64) (uint64, error) {
	var authorID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT author_id FROM movies WHERE id=? LIMIT 1", id).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return authorID, err
}

// Create inserts a movie and its image rows in one transaction and fills
// in the new movie id on m.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO movies (title, director, stars, year, rating, description, author_id)
		VALUES (?,?,?,?,?,?,?)`,
		m.Title, m.Director, m.Stars, m.Year, m.Rating, m.Description, m.AuthorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	for i := range m.Images {
		m.Images[i].MovieID = m.ID
		m.Images[i].Position = i
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO movie_images (movie_id, url, filename, position)
			VALUES (?,?,?,?)`,
			m.ID, m.Images[i].URL, m.Images[i].Filename, i); err != nil {
			return err
		}
	}
	return nil
}

// Update applies field updates, appends newly uploaded images after the
// current highest position (uploads never replace the existing sequence)
// and removes the rows for the listed filenames, all in one transaction.
// ErrNotFound is returned when the movie does not exist.
func (r *MovieRepo) Update(ctx context.Context, id uint64, m model.Movie, addImages []model.Image, removeFilenames []string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE movies SET title=?, director=?, stars=?, year=?, rating=?, description=?
		WHERE id=?`,
		m.Title, m.Director, m.Stars, m.Year, m.Rating, m.Description, id)
	if err != nil {
		return err
	}
	if n, aerr := res.RowsAffected(); aerr == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update;
		// disambiguate with an existence check.
		var exists uint64
		if err = tx.QueryRowContext(ctx, "SELECT id FROM movies WHERE id=? LIMIT 1", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = ErrNotFound
			}
			return err
		}
	}

	if len(addImages) > 0 {
		var next int
		if err = tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position)+1,0) FROM movie_images WHERE movie_id=?", id).
			Scan(&next); err != nil {
			return err
		}
		for i, img := range addImages {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO movie_images (movie_id, url, filename, position)
				VALUES (?,?,?,?)`,
				id, img.URL, img.Filename, next+i); err != nil {
				return err
			}
		}
	}

	if len(removeFilenames) > 0 {
		placeholders := strings.Repeat("?,", len(removeFilenames))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, 0, len(removeFilenames)+1)
		args = append(args, id)
		for _, f := range removeFilenames {
			args = append(args, f)
		}
		if _, err = tx.ExecContext(ctx,
			"DELETE FROM movie_images WHERE movie_id=? AND filename IN ("+placeholders+")",
			args...); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a movie row and returns the image filenames that were
// attached to it so the caller can release the objects from the media
// store.  Dependent review and image rows are removed by the ON DELETE
// CASCADE foreign keys, so the cascade holds no matter which code path
// deletes the movie.  ErrNotFound is returned when the id does not
// resolve.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) (filenames []string, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		"SELECT filename FROM movie_images WHERE movie_id=?", id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var f string
		if err = rows.Scan(&f); err != nil {
			rows.Close()
			return nil, err
		}
		filenames = append(filenames, f)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	res, err := tx.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return nil, err
	}
	if n, aerr := res.RowsAffected(); aerr == nil && n == 0 {
		err = ErrNotFound
		return nil, err
	}
	return filenames, nil
}
