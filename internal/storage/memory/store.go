// Package memory implements the storage interfaces in process memory.
//
// It backs the unit tests and the STORAGE=memory development mode. Data is
// lost on restart.
//
// A transaction works on a private copy of the tables and records every
// successful write. Nothing it does is visible to other callers until it
// commits. On commit the copy replaces the shared tables when nobody else has
// written since it began; otherwise the recorded writes are replayed on top
// of the current tables, and a write that no longer applies fails the commit
// without changing anything. Write closures may therefore run twice, so
// anything they generate (IDs, timestamps) is fixed on the first run.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/storage"
)

type userRow struct {
	user domain.RegisteredUser
	hash string
}

type articleRow struct {
	id          domain.ArticleID
	slug        domain.Slug
	title       domain.Title
	description domain.Description
	body        domain.ArticleBody
	tags        []domain.Tag
	authorID    domain.UserID
	createdAt   time.Time
	updatedAt   time.Time
}

type commentRow struct {
	comment   domain.Comment
	articleID domain.ArticleID
}

type follow struct {
	follower domain.UserID
	followee domain.UserID
}

type favorite struct {
	userID    domain.UserID
	articleID domain.ArticleID
}

// tables is everything a transaction copies.
type tables struct {
	users     map[domain.UserID]userRow
	articles  map[domain.ArticleID]articleRow
	comments  map[domain.CommentID]commentRow
	follows   map[follow]struct{}
	favorites map[favorite]struct{}
}

func newTables() tables {
	return tables{
		users:     make(map[domain.UserID]userRow),
		articles:  make(map[domain.ArticleID]articleRow),
		comments:  make(map[domain.CommentID]commentRow),
		follows:   make(map[follow]struct{}),
		favorites: make(map[favorite]struct{}),
	}
}

func (t tables) clone() tables {
	c := t
	c.users = maps.Clone(t.users)
	c.articles = make(map[domain.ArticleID]articleRow, len(t.articles))
	for id, row := range t.articles {
		row.tags = slices.Clone(row.tags)
		c.articles[id] = row
	}
	c.comments = maps.Clone(t.comments)
	c.follows = maps.Clone(t.follows)
	c.favorites = maps.Clone(t.favorites)
	return c
}

// Store holds all tables behind one lock.
type Store struct {
	mu      sync.RWMutex
	data    tables
	version uint64 // bumped by every write to data

	// Sequences are never rolled back, like database sequences.
	userSeq    atomic.Int64
	articleSeq atomic.Int64
	commentSeq atomic.Int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		data: newTables(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Repositories returns all repositories backed by this store.
func (s *Store) Repositories() *storage.Repositories {
	return &storage.Repositories{
		Users:    &UserRepository{s: s},
		Profiles: &ProfileRepository{s: s},
		Articles: &ArticleRepository{s: s},
		Comments: &CommentRepository{s: s},
		Tags:     &TagRepository{s: s},
	}
}

type txKey struct{}

// tx is one open transaction. It belongs to the goroutine running fn.
type tx struct {
	base   uint64
	work   tables
	writes []func(t *tables) error
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// WithTransaction implements storage.Transactor. A nested call joins the
// outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.RLock()
	t := &tx{base: s.version, work: s.data.clone()}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	if len(t.writes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == t.base {
		s.data = t.work
		s.version++
		return nil
	}

	data := s.data.clone()
	for _, write := range t.writes {
		if err := write(&data); err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}
	}
	s.data = data
	s.version++
	return nil
}

func (s *Store) read(ctx context.Context, fn func(t *tables) error) error {
	if t := txFrom(ctx); t != nil {
		return fn(&t.work)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.data)
}

// write runs fn against the transaction copy when ctx carries one, and
// against the shared tables otherwise. fn must not change anything when it
// returns an error.
func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if t := txFrom(ctx); t != nil {
		if err := fn(&t.work); err != nil {
			return err
		}
		t.writes = append(t.writes, fn)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.data); err != nil {
		return err
	}
	s.version++
	return nil
}
