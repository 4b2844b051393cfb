// Package redis provides read-through caching in front of the primary store.
//
// The cache is best effort. A Redis failure is logged and the call falls
// through to the wrapped repository, so Redis is never required for
// correctness.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/storage"
)

const tagsKey = "conduit:tags:all"

// NewClient initializes a redis client.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// TagCache implements storage.TagRepository by caching the tag list.
type TagCache struct {
	next   storage.TagRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewTagCache(next storage.TagRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *TagCache {
	return &TagCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *TagCache) List(ctx context.Context) ([]domain.Tag, error) {
	raw, err := c.rdb.Get(ctx, tagsKey).Bytes()
	switch {
	case err == nil:
		var names []string
		if err := json.Unmarshal(raw, &names); err == nil {
			return domain.TagsFromTrusted(names), nil
		}
		c.logger.WithField("key", tagsKey).Warn("discarding malformed cached tags")
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("key", tagsKey).Warn("redis get failed")
	}

	tags, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(domain.TagStrings(tags)); err == nil {
		if err := c.rdb.Set(ctx, tagsKey, b, c.ttl).Err(); err != nil {
			c.logger.WithError(err).WithField("key", tagsKey).Warn("redis set failed")
		}
	}
	return tags, nil
}

// invalidate drops the cached tag list now, or marks it stale when ctx
// belongs to a transaction opened through Transactor.
func (c *TagCache) invalidate(ctx context.Context) {
	if p, ok := ctx.Value(pendingKey{}).(*pending); ok {
		p.stale = true
		return
	}
	c.Invalidate(ctx)
}

// Invalidate drops the cached tag list.
func (c *TagCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, tagsKey).Err(); err != nil {
		c.logger.WithError(err).WithField("key", tagsKey).Warn("redis del failed")
	}
}

// ArticleRepository wraps an article repository and invalidates the tag
// cache whenever the set of articles changes.
type ArticleRepository struct {
	storage.ArticleRepository
	tags *TagCache
}

func NewArticleRepository(next storage.ArticleRepository, tags *TagCache) *ArticleRepository {
	return &ArticleRepository{ArticleRepository: next, tags: tags}
}

func (r *ArticleRepository) Create(ctx context.Context, article domain.UncreatedArticle) (domain.CreatedArticle, error) {
	created, err := r.ArticleRepository.Create(ctx, article)
	if err == nil && len(article.TagList) > 0 {
		r.tags.invalidate(ctx)
	}
	return created, err
}

func (r *ArticleRepository) Delete(ctx context.Context, id domain.ArticleID) error {
	err := r.ArticleRepository.Delete(ctx, id)
	if err == nil {
		r.tags.invalidate(ctx)
	}
	return err
}

type pendingKey struct{}

type pending struct {
	stale bool
}

// Transactor wraps a storage.Transactor so that tag changes made inside a
// transaction invalidate the cache after it commits. Changes that are rolled
// back leave the cache alone.
type Transactor struct {
	next storage.Transactor
	tags *TagCache
}

func NewTransactor(next storage.Transactor, tags *TagCache) *Transactor {
	return &Transactor{next: next, tags: tags}
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pendingKey{}).(*pending); ok {
		return t.next.WithTransaction(ctx, fn)
	}

	p := &pending{}
	if err := t.next.WithTransaction(context.WithValue(ctx, pendingKey{}, p), fn); err != nil {
		return err
	}
	if p.stale {
		t.tags.Invalidate(ctx)
	}
	return nil
}
