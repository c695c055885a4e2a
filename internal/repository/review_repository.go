package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qmdb/movie-reviews/internal/model"
)

// ReviewRepo provides access to the `reviews` table.  A review belongs to
// a movie via a foreign key, so "appending to the movie's review sequence"
// and "persisting the review" are a single insert; there is no reference
// array that could drift out of step with the review rows.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// Create inserts a review for a movie and fills in the new id on rev.
// If the movie row is gone by the time the insert runs, the foreign key
// rejects it and ErrNotFound is returned; a review can never be attached
// to a deleted movie.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (movie_id, author_id, rating, body) VALUES (?,?,?,?)",
		rev.MovieID, rev.AuthorID, rev.Rating, rev.Body)
	if err != nil {
		// MySQL 1452: foreign key constraint fails on insert.
		if strings.Contains(err.Error(), "1452") {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID = uint64(id)
	return nil
}

// GetByID fetches a review by id with its author's username joined in.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	var rev model.Review
	err := r.DB.QueryRowContext(ctx, `
		SELECT r.id, r.movie_id, r.author_id, u.username, r.rating, r.body, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = ? LIMIT 1`, id).
		Scan(&rev.ID, &rev.MovieID, &rev.AuthorID, &rev.AuthorName,
			&rev.Rating, &rev.Body, &rev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrNotFound
	}
	return rev, err
}

// DeleteByIDAndAuthor removes a review provided it belongs to the given
// author.  ErrNotFound is returned when the review does not exist and
// ErrForbidden when it exists but belongs to someone else; in the
// forbidden case nothing is mutated.  The ownership check and the delete
// run in one transaction.
func (r *ReviewRepo) DeleteByIDAndAuthor(ctx context.Context, id, authorID uint64) (err error) {
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

	var dbAuthorID uint64
	if err = tx.QueryRowContext(ctx,
		"SELECT author_id FROM reviews WHERE id=? LIMIT 1", id).Scan(&dbAuthorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}
	if dbAuthorID != authorID {
		err = ErrForbidden
		return err
	}
	// Author id stays in the predicate so the guard and the mutation agree
	// even if the row changed between the two statements.
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM reviews WHERE id=? AND author_id=?", id, authorID); err != nil {
		return err
	}
	return nil
}
