package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvaleed/conduit/internal/auth"
	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/logging"
	"github.com/mvaleed/conduit/internal/storage"
	"github.com/mvaleed/conduit/internal/storage/memory"
)

// recordingPublisher keeps the types of published events.
type recordingPublisher struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.Type)
	return p.err
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type fixture struct {
	store    *memory.Store
	repos    *storage.Repositories
	events   *recordingPublisher
	users    *UserService
	profiles *ProfileService
	articles *ArticleService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	return newFixtureWith(t, store, store.Repositories())
}

func newFixtureWith(t *testing.T, store *memory.Store, repos *storage.Repositories) *fixture {
	t.Helper()

	events := &recordingPublisher{}
	logger := logging.Discard()
	cascade := NewArticleCascade(store, repos.Articles, repos.Comments)

	return &fixture{
		store:    store,
		repos:    repos,
		events:   events,
		users:    NewUserService(repos.Users, auth.NewHasher(bcrypt.MinCost), events, logger),
		profiles: NewProfileService(repos.Profiles, events, logger),
		articles: NewArticleService(repos.Articles, repos.Profiles, repos.Tags, cascade, events, logger),
		comments: NewCommentService(repos.Comments, repos.Profiles, events, logger),
	}
}

func ptr(s string) *string { return &s }

func (f *fixture) register(t *testing.T, username string) domain.RegisteredUser {
	t.Helper()
	u, err := f.users.RegisterUser(context.Background(), ptr(username+"@conduit.io"), ptr("password123"), ptr(username))
	require.NoError(t, err)
	return u
}

func (f *fixture) publish(t *testing.T, author domain.UserID, title string, tags ...string) ArticleView {
	t.Helper()
	v, err := f.articles.CreateArticle(context.Background(), ptr(title), ptr("about "+title), ptr("body of "+title), tags, author)
	require.NoError(t, err)
	return v
}

func slugOf(v ArticleView) *string { return ptr(v.Article.Slug.String()) }

// failingComments delegates everything but DeleteAll, which always fails.
type failingComments struct {
	storage.CommentRepository
}

var errCommentStore = errors.New("comment store unavailable")

func (failingComments) DeleteAll(context.Context, domain.ArticleID) error {
	return errCommentStore
}
