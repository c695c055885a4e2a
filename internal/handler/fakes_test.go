package handler_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/qmdb/movie-reviews/internal/model"
	"github.com/qmdb/movie-reviews/internal/repository"
	"github.com/qmdb/movie-reviews/internal/utils"
)

// memStore is an in-memory stand-in for the three repositories plus the
// media store, sharing one state so cross-resource effects (the review
// cascade on movie delete, the image handles released to the media store)
// can be asserted in one place.  The movie-delete cascade mirrors what
// the database's ON DELETE CASCADE foreign keys do in production.
type memStore struct {
	mu          sync.Mutex
	nextID      uint64
	users       map[uint64]model.User
	movies      map[uint64]model.Movie
	reviews     map[uint64]model.Review
	objects     map[string]bool // media-store objects by handle
	failDeletes map[string]bool // handles whose media-store delete fails
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uint64]model.User),
		movies:      make(map[uint64]model.Movie),
		reviews:     make(map[uint64]model.Review),
		objects:     make(map[string]bool),
		failDeletes: make(map[string]bool),
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

// ---- UserStore + middleware.UserStore ----

func (s *memStore) Create(ctx context.Context, username, email, password string, cost int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return 0, repository.ErrUsernameExists
		}
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := s.id()
	s.users[id] = model.User{ID: id, Username: username, Email: email, PasswordHash: hash}
	return id, nil
}

func (s *memStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// seedUser registers a user directly and returns its id.
func (s *memStore) seedUser(username, password string) uint64 {
	id, err := s.Create(context.Background(), username, username+"@example.com", password, 4)
	if err != nil {
		panic(err)
	}
	return id
}

// ---- movieStore facade (separate type: GetByID collides with users) ----

type movieStore struct{ s *memStore }

func (m movieStore) List(ctx context.Context) ([]model.Movie, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]model.Movie, 0, len(m.s.movies))
	for _, mv := range m.s.movies {
		out = append(out, m.s.populateLocked(mv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m movieStore) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	mv, ok := m.s.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrNotFound
	}
	return m.s.populateLocked(mv), nil
}

func (s *memStore) populateLocked(mv model.Movie) model.Movie {
	mv.AuthorName = s.users[mv.AuthorID].Username
	mv.Reviews = nil
	for _, r := range s.reviews {
		if r.MovieID == mv.ID {
			r.AuthorName = s.users[r.AuthorID].Username
			mv.Reviews = append(mv.Reviews, r)
		}
	}
	sort.Slice(mv.Reviews, func(i, j int) bool { return mv.Reviews[i].ID < mv.Reviews[j].ID })
	return mv
}

func (m movieStore) Create(ctx context.Context, mv *model.Movie) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	mv.ID = m.s.id()
	for i := range mv.Images {
		mv.Images[i].MovieID = mv.ID
		mv.Images[i].Position = i
	}
	m.s.movies[mv.ID] = *mv
	return nil
}

func (m movieStore) Update(ctx context.Context, id uint64, fields model.Movie, addImages []model.Image, removeFilenames []string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	mv, ok := m.s.movies[id]
	if !ok {
		return repository.ErrNotFound
	}
	mv.Title, mv.Director, mv.Stars = fields.Title, fields.Director, fields.Stars
	mv.Year, mv.Rating, mv.Description = fields.Year, fields.Rating, fields.Description
	mv.Images = append(mv.Images, addImages...)
	if len(removeFilenames) > 0 {
		remove := make(map[string]bool, len(removeFilenames))
		for _, f := range removeFilenames {
			remove[f] = true
		}
		kept := mv.Images[:0]
		for _, img := range mv.Images {
			if !remove[img.Filename] {
				kept = append(kept, img)
			}
		}
		mv.Images = kept
	}
	m.s.movies[id] = mv
	return nil
}

func (m movieStore) Delete(ctx context.Context, id uint64) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	mv, ok := m.s.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	var filenames []string
	for _, img := range mv.Images {
		filenames = append(filenames, img.Filename)
	}
	delete(m.s.movies, id)
	for rid, r := range m.s.reviews {
		if r.MovieID == id {
			delete(m.s.reviews, rid)
		}
	}
	return filenames, nil
}

func (m movieStore) AuthorID(ctx context.Context, id uint64) (uint64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	mv, ok := m.s.movies[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return mv.AuthorID, nil
}

// seedMovie inserts a movie owned by authorID and returns its id.
func (s *memStore) seedMovie(authorID uint64, title string, images ...model.Image) uint64 {
	mv := model.Movie{
		Title: title, Director: "d", Stars: "s", Year: 2020, Rating: 7,
		Description: "desc", AuthorID: authorID, Images: images,
	}
	_ = (movieStore{s}).Create(context.Background(), &mv)
	s.mu.Lock()
	for _, img := range images {
		s.objects[img.Filename] = true
	}
	s.mu.Unlock()
	return mv.ID
}

// ---- reviewStore facade ----

type reviewStore struct{ s *memStore }

func (r reviewStore) Create(ctx context.Context, rev *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movies[rev.MovieID]; !ok {
		return repository.ErrNotFound
	}
	rev.ID = r.s.id()
	r.s.reviews[rev.ID] = *rev
	return nil
}

func (r reviewStore) DeleteByIDAndAuthor(ctx context.Context, id, authorID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rev, ok := r.s.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	if rev.AuthorID != authorID {
		return repository.ErrForbidden
	}
	delete(r.s.reviews, id)
	return nil
}

func (s *memStore) seedReview(movieID, authorID uint64, body string) uint64 {
	rev := model.Review{MovieID: movieID, AuthorID: authorID, Rating: 8, Body: body}
	if err := (reviewStore{s}).Create(context.Background(), &rev); err != nil {
		panic(err)
	}
	return rev.ID
}

func (s *memStore) reviewCountFor(movieID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reviews {
		if r.MovieID == movieID {
			n++
		}
	}
	return n
}

// ---- media.Store fake ----

type fakeMedia struct{ s *memStore }

func (f fakeMedia) Upload(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (string, string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	filename := "obj-" + originalName
	f.s.objects[filename] = true
	return "http://media.test/" + filename, filename, nil
}

func (f fakeMedia) Delete(ctx context.Context, filename string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failDeletes[filename] {
		return errors.New("object store unavailable")
	}
	delete(f.s.objects, filename)
	return nil
}
