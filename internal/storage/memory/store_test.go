package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/conduit/internal/domain"
)

func seedUser(t *testing.T, s *Store, name string) domain.RegisteredUser {
	t.Helper()
	u, err := s.Repositories().Users.Register(context.Background(), domain.UnregisteredUser{
		Email:    domain.EmailFromTrusted(name + "@conduit.io"),
		Username: domain.UsernameFromTrusted(name),
	}, "hash")
	require.NoError(t, err)
	return u
}

func seedArticle(t *testing.T, s *Store, author domain.UserID, slug string, tags ...string) domain.CreatedArticle {
	t.Helper()
	a, err := s.Repositories().Articles.Create(context.Background(), domain.UncreatedArticle{
		Slug:        domain.SlugFromTrusted(slug),
		Title:       domain.TitleFromTrusted(slug),
		Description: domain.DescriptionFromTrusted("d"),
		Body:        domain.ArticleBodyFromTrusted("b"),
		TagList:     domain.TagsFromTrusted(tags),
		AuthorID:    author,
	})
	require.NoError(t, err)
	return a
}

func TestWithTransactionRollsBack(t *testing.T) {
	s := New()
	ctx := context.Background()
	jake := seedUser(t, s, "jake")
	article := seedArticle(t, s, jake.ID, "dragons")
	repos := s.Repositories()

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Articles.Delete(ctx, article.ID))
		_, err := repos.Articles.FindBySlug(ctx, article.Slug, nil)
		require.ErrorIs(t, err, domain.ErrArticleNotFound)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Articles.FindBySlug(ctx, article.Slug, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(article))
}

func TestWithTransactionCommitsAndNests(t *testing.T) {
	s := New()
	ctx := context.Background()
	jake := seedUser(t, s, "jake")
	article := seedArticle(t, s, jake.ID, "dragons")
	repos := s.Repositories()

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		return s.WithTransaction(ctx, func(ctx context.Context) error {
			return repos.Articles.Delete(ctx, article.ID)
		})
	})
	require.NoError(t, err)

	_, err = repos.Articles.FindBySlug(ctx, article.Slug, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithTransactionKeepsOutsideWrites(t *testing.T) {
	for _, tt := range []struct {
		name  string
		txErr error
	}{
		{"rollback", errors.New("boom")},
		{"commit", nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			ctx := context.Background()
			jake := seedUser(t, s, "jake")
			article := seedArticle(t, s, jake.ID, "dragons")
			repos := s.Repositories()

			err := s.WithTransaction(ctx, func(txCtx context.Context) error {
				require.NoError(t, repos.Articles.Delete(txCtx, article.ID))
				seedUser(t, s, "other")
				return tt.txErr
			})
			require.ErrorIs(t, err, tt.txErr)

			_, _, err = repos.Users.FindByEmailWithPassword(ctx, domain.EmailFromTrusted("other@conduit.io"))
			require.NoError(t, err, "write made outside the transaction was lost")

			_, err = repos.Articles.FindBySlug(ctx, article.Slug, nil)
			if tt.txErr != nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrArticleNotFound)
			}
		})
	}
}

func TestWithTransactionHidesUncommittedWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	jake := seedUser(t, s, "jake")
	article := seedArticle(t, s, jake.ID, "dragons")
	repos := s.Repositories()

	err := s.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := repos.Articles.Favorite(txCtx, article.Slug, jake.ID)
		require.NoError(t, err)

		outside, err := repos.Articles.FindBySlug(ctx, article.Slug, &jake.ID)
		require.NoError(t, err)
		assert.False(t, outside.Favorited)
		return nil
	})
	require.NoError(t, err)

	committed, err := repos.Articles.FindBySlug(ctx, article.Slug, &jake.ID)
	require.NoError(t, err)
	assert.True(t, committed.Favorited)
}

func TestWithTransactionFailsOnConflictingCommit(t *testing.T) {
	s := New()
	ctx := context.Background()
	jake := seedUser(t, s, "jake")
	keep := seedArticle(t, s, jake.ID, "keep")
	gone := seedArticle(t, s, jake.ID, "gone")
	repos := s.Repositories()

	err := s.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := repos.Articles.Favorite(txCtx, keep.Slug, jake.ID)
		require.NoError(t, err)
		require.NoError(t, repos.Articles.Delete(txCtx, gone.ID))

		require.NoError(t, repos.Articles.Delete(ctx, gone.ID))
		return nil
	})
	require.ErrorIs(t, err, domain.ErrArticleNotFound)

	got, err := repos.Articles.FindBySlug(ctx, keep.Slug, &jake.ID)
	require.NoError(t, err)
	assert.False(t, got.Favorited, "no write of a failed commit may be applied")
}

func TestReplayedCommitKeepsGeneratedIDs(t *testing.T) {
	s := New()
	ctx := context.Background()
	jake := seedUser(t, s, "jake")
	repos := s.Repositories()

	var created domain.CreatedArticle
	err := s.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = repos.Articles.Create(txCtx, domain.UncreatedArticle{
			Slug:     domain.SlugFromTrusted("in-tx"),
			AuthorID: jake.ID,
		})
		require.NoError(t, err)

		seedArticle(t, s, jake.ID, "outside")
		return nil
	})
	require.NoError(t, err)

	got, err := repos.Articles.FindBySlug(ctx, created.Slug, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestRegisterRejectsTakenIdentity(t *testing.T) {
	s := New()
	seedUser(t, s, "jake")

	_, err := s.Repositories().Users.Register(context.Background(), domain.UnregisteredUser{
		Email:    domain.EmailFromTrusted("jake@conduit.io"),
		Username: domain.UsernameFromTrusted("other"),
	}, "hash")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestArticleCreateRules(t *testing.T) {
	s := New()
	jake := seedUser(t, s, "jake")
	seedArticle(t, s, jake.ID, "dragons")

	_, err := s.Repositories().Articles.Create(context.Background(), domain.UncreatedArticle{
		Slug:     domain.SlugFromTrusted("dragons"),
		AuthorID: jake.ID,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = s.Repositories().Articles.Create(context.Background(), domain.UncreatedArticle{
		Slug:     domain.SlugFromTrusted("orphan"),
		AuthorID: jake.ID + 1,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLatestByAuthorsNewestFirst(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	jake := seedUser(t, s, "jake")
	jane := seedUser(t, s, "jane")
	seedArticle(t, s, jake.ID, "a")
	seedArticle(t, s, jane.ID, "b")
	seedArticle(t, s, jake.ID, "c")

	got, err := s.Repositories().Articles.LatestByAuthors(context.Background(), []domain.UserID{jake.ID}, jane.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Slug.String())
	assert.Equal(t, "a", got[1].Slug.String())
}

func TestListAllCarriesFavoritedBy(t *testing.T) {
	s := New()
	ctx := context.Background()
	jake := seedUser(t, s, "jake")
	jane := seedUser(t, s, "jane")
	article := seedArticle(t, s, jake.ID, "dragons")

	_, err := s.Repositories().Articles.Favorite(ctx, article.Slug, jane.ID)
	require.NoError(t, err)

	listings, err := s.Repositories().Articles.ListAll(ctx, &jane.ID)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.True(t, listings[0].IsFavoritedBy("jane"))
	assert.True(t, listings[0].Article.Favorited)
	assert.Equal(t, "jake", listings[0].Author.Username.String())
}

func TestTagsAreDistinctAndSorted(t *testing.T) {
	s := New()
	jake := seedUser(t, s, "jake")
	seedArticle(t, s, jake.ID, "one", "go", "db")
	seedArticle(t, s, jake.ID, "two", "api", "go")

	tags, err := s.Repositories().Tags.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db", "go"}, domain.TagStrings(tags))
}

func TestCommentsScopedToArticle(t *testing.T) {
	s := New()
	ctx := context.Background()
	jake := seedUser(t, s, "jake")
	a := seedArticle(t, s, jake.ID, "a")
	b := seedArticle(t, s, jake.ID, "b")
	comments := s.Repositories().Comments

	c, err := comments.Create(ctx, a.Slug, domain.CommentBodyFromTrusted("hi"), jake.ID)
	require.NoError(t, err)

	_, err = comments.Find(ctx, b.Slug, c.ID)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	require.NoError(t, comments.DeleteAll(ctx, a.ID))
	listed, err := comments.List(ctx, a.Slug)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
