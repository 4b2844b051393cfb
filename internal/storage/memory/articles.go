package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mvaleed/conduit/internal/domain"
)

// ArticleRepository implements storage.ArticleRepository.
type ArticleRepository struct {
	s *Store
}

func (t *tables) articleBySlug(slug domain.Slug) (articleRow, bool) {
	for _, row := range t.articles {
		if row.slug == slug {
			return row, true
		}
	}
	return articleRow{}, false
}

func (t *tables) created(row articleRow, viewpoint *domain.UserID) domain.CreatedArticle {
	count := 0
	favorited := false
	for f := range t.favorites {
		if f.articleID != row.id {
			continue
		}
		count++
		if viewpoint != nil && f.userID == *viewpoint {
			favorited = true
		}
	}
	return domain.CreatedArticle{
		ID:             row.id,
		Title:          row.title,
		Slug:           row.slug,
		Body:           row.body,
		Description:    row.description,
		TagList:        slices.Clone(row.tags),
		AuthorID:       row.authorID,
		CreatedAt:      row.createdAt,
		UpdatedAt:      row.updatedAt,
		Favorited:      favorited,
		FavoritesCount: count,
	}
}

func (r *ArticleRepository) FindBySlug(ctx context.Context, slug domain.Slug, viewpoint *domain.UserID) (domain.CreatedArticle, error) {
	var a domain.CreatedArticle
	err := r.s.read(ctx, func(t *tables) error {
		row, ok := t.articleBySlug(slug)
		if !ok {
			return domain.ErrArticleNotFound
		}
		a = t.created(row, viewpoint)
		return nil
	})
	return a, err
}

func (r *ArticleRepository) ListAll(ctx context.Context, viewpoint *domain.UserID) ([]domain.ArticleListing, error) {
	var out []domain.ArticleListing
	err := r.s.read(ctx, func(t *tables) error {
		out = make([]domain.ArticleListing, 0, len(t.articles))
		for _, row := range t.articles {
			author, ok := t.users[row.authorID]
			if !ok {
				return fmt.Errorf("article %d: author %d: %w", row.id, row.authorID, domain.ErrUserNotFound)
			}
			var favoritedBy []domain.Username
			for f := range t.favorites {
				if f.articleID != row.id {
					continue
				}
				if u, ok := t.users[f.userID]; ok {
					favoritedBy = append(favoritedBy, u.user.Username)
				}
			}
			out = append(out, domain.ArticleListing{
				Article:     t.created(row, viewpoint),
				Author:      t.profile(author.user, viewpoint),
				FavoritedBy: favoritedBy,
			})
		}
		return nil
	})
	return out, err
}

func (r *ArticleRepository) LatestByAuthors(ctx context.Context, authorIDs []domain.UserID, viewpoint domain.UserID) ([]domain.CreatedArticle, error) {
	var out []domain.CreatedArticle
	err := r.s.read(ctx, func(t *tables) error {
		for _, row := range t.articles {
			if slices.Contains(authorIDs, row.authorID) {
				out = append(out, t.created(row, &viewpoint))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.CreatedArticle) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, err
}

func (r *ArticleRepository) Create(ctx context.Context, input domain.UncreatedArticle) (domain.CreatedArticle, error) {
	var (
		a   domain.CreatedArticle
		id  domain.ArticleID
		now time.Time
	)
	err := r.s.write(ctx, func(t *tables) error {
		if _, ok := t.articleBySlug(input.Slug); ok {
			return fmt.Errorf("slug %s: %w", input.Slug, domain.ErrAlreadyExists)
		}
		if _, ok := t.users[input.AuthorID]; !ok {
			return fmt.Errorf("author %d: %w", input.AuthorID, domain.ErrConflict)
		}
		if id == 0 {
			id = domain.ArticleID(r.s.articleSeq.Add(1))
			now = r.s.now()
		}
		row := articleRow{
			id:          id,
			slug:        input.Slug,
			title:       input.Title,
			description: input.Description,
			body:        input.Body,
			tags:        slices.Clone(input.TagList),
			authorID:    input.AuthorID,
			createdAt:   now,
			updatedAt:   now,
		}
		t.articles[row.id] = row
		a = t.created(row, &input.AuthorID)
		return nil
	})
	return a, err
}

func (r *ArticleRepository) Update(ctx context.Context, update domain.UpdatableCreatedArticle, viewpoint domain.UserID) (domain.CreatedArticle, error) {
	var a domain.CreatedArticle
	now := r.s.now()
	err := r.s.write(ctx, func(t *tables) error {
		row, ok := t.articles[update.ArticleID]
		if !ok {
			return domain.ErrArticleNotFound
		}
		row.title = update.Title
		row.description = update.Description
		row.body = update.Body
		row.updatedAt = now
		t.articles[row.id] = row
		a = t.created(row, &viewpoint)
		return nil
	})
	return a, err
}

// Delete removes the article and its favorites. Comments are left to the caller.
func (r *ArticleRepository) Delete(ctx context.Context, id domain.ArticleID) error {
	return r.s.write(ctx, func(t *tables) error {
		if _, ok := t.articles[id]; !ok {
			return domain.ErrArticleNotFound
		}
		delete(t.articles, id)
		for f := range t.favorites {
			if f.articleID == id {
				delete(t.favorites, f)
			}
		}
		return nil
	})
}

func (r *ArticleRepository) Favorite(ctx context.Context, slug domain.Slug, userID domain.UserID) (domain.CreatedArticle, error) {
	return r.setFavorite(ctx, slug, userID, true)
}

func (r *ArticleRepository) Unfavorite(ctx context.Context, slug domain.Slug, userID domain.UserID) (domain.CreatedArticle, error) {
	return r.setFavorite(ctx, slug, userID, false)
}

func (r *ArticleRepository) setFavorite(ctx context.Context, slug domain.Slug, userID domain.UserID, on bool) (domain.CreatedArticle, error) {
	var a domain.CreatedArticle
	err := r.s.write(ctx, func(t *tables) error {
		row, ok := t.articleBySlug(slug)
		if !ok {
			return domain.ErrArticleNotFound
		}
		key := favorite{userID: userID, articleID: row.id}
		if on {
			t.favorites[key] = struct{}{}
		} else {
			delete(t.favorites, key)
		}
		a = t.created(row, &userID)
		return nil
	})
	return a, err
}

// TagRepository implements storage.TagRepository.
type TagRepository struct {
	s *Store
}

// List returns the distinct tags of all articles in lexical order.
func (r *TagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	seen := make(map[string]struct{})
	err := r.s.read(ctx, func(t *tables) error {
		for _, row := range t.articles {
			for _, tag := range row.tags {
				seen[tag.String()] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return domain.TagsFromTrusted(names), nil
}

// CommentRepository implements storage.CommentRepository.
type CommentRepository struct {
	s *Store
}

func (r *CommentRepository) List(ctx context.Context, slug domain.Slug) ([]domain.Comment, error) {
	var out []domain.Comment
	err := r.s.read(ctx, func(t *tables) error {
		article, ok := t.articleBySlug(slug)
		if !ok {
			return domain.ErrArticleNotFound
		}
		out = make([]domain.Comment, 0)
		for _, row := range t.comments {
			if row.articleID == article.id {
				out = append(out, row.comment)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.Comment) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (r *CommentRepository) Find(ctx context.Context, slug domain.Slug, id domain.CommentID) (domain.Comment, error) {
	var c domain.Comment
	err := r.s.read(ctx, func(t *tables) error {
		article, ok := t.articleBySlug(slug)
		if !ok {
			return domain.ErrArticleNotFound
		}
		row, ok := t.comments[id]
		if !ok || row.articleID != article.id {
			return domain.ErrCommentNotFound
		}
		c = row.comment
		return nil
	})
	return c, err
}

func (r *CommentRepository) Create(ctx context.Context, slug domain.Slug, body domain.CommentBody, authorID domain.UserID) (domain.Comment, error) {
	var c domain.Comment
	err := r.s.write(ctx, func(t *tables) error {
		article, ok := t.articleBySlug(slug)
		if !ok {
			return domain.ErrArticleNotFound
		}
		if c.ID == 0 {
			now := r.s.now()
			c = domain.Comment{
				ID:        domain.CommentID(r.s.commentSeq.Add(1)),
				Body:      body,
				CreatedAt: now,
				UpdatedAt: now,
				AuthorID:  authorID,
			}
		}
		t.comments[c.ID] = commentRow{comment: c, articleID: article.id}
		return nil
	})
	return c, err
}

func (r *CommentRepository) Delete(ctx context.Context, id domain.CommentID) error {
	return r.s.write(ctx, func(t *tables) error {
		if _, ok := t.comments[id]; !ok {
			return domain.ErrCommentNotFound
		}
		delete(t.comments, id)
		return nil
	})
}

func (r *CommentRepository) DeleteAll(ctx context.Context, articleID domain.ArticleID) error {
	return r.s.write(ctx, func(t *tables) error {
		for id, row := range t.comments {
			if row.articleID == articleID {
				delete(t.comments, id)
			}
		}
		return nil
	})
}
