package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/event"
	"github.com/mvaleed/conduit/internal/storage"
)

// ArticleView is an article together with its author as seen by the reader.
type ArticleView struct {
	Article domain.CreatedArticle
	Author  domain.Profile
}

// ArticlePage is one window of articles and the total number that matched.
type ArticlePage struct {
	Articles []ArticleView
	Count    int
}

// ArticleService handles article publishing, listing and favorites.
type ArticleService struct {
	articles  storage.ArticleRepository
	profiles  storage.ProfileRepository
	tags      storage.TagRepository
	cascade   *ArticleCascade
	publisher event.Publisher
	logger    *logrus.Logger
}

func NewArticleService(
	articles storage.ArticleRepository,
	profiles storage.ProfileRepository,
	tags storage.TagRepository,
	cascade *ArticleCascade,
	publisher event.Publisher,
	logger *logrus.Logger,
) *ArticleService {
	return &ArticleService{
		articles:  articles,
		profiles:  profiles,
		tags:      tags,
		cascade:   cascade,
		publisher: publisher,
		logger:    logger,
	}
}

// FilterCreatedArticles lists articles matching every given predicate,
// ordered by ascending id. Predicates are optional and never validated;
// limit and offset are.
//
// Errors: ValidationErrorsError, OffsetOverCountError, UnexpectedError.
func (s *ArticleService) FilterCreatedArticles(
	ctx context.Context,
	tag, author, favoritedByUsername, limit, offset *string,
	viewpoint *domain.UserID,
) (ArticlePage, error) {
	params, err := validated(OpFilterCreatedArticles,
		domain.ValidateFilterParameters(tag, author, favoritedByUsername, limit, offset))
	if err != nil {
		return ArticlePage{}, err
	}

	listings, err := s.articles.ListAll(ctx, viewpoint)
	if err != nil {
		return ArticlePage{}, unexpected(OpFilterCreatedArticles, err)
	}

	page, err := domain.FilterArticles(listings, params)
	if err != nil {
		return ArticlePage{}, pageFailure(OpFilterCreatedArticles, err)
	}

	views := make([]ArticleView, len(page.Items))
	for i, l := range page.Items {
		views[i] = ArticleView{Article: l.Article, Author: l.Author}
	}
	return ArticlePage{Articles: views, Count: page.Count}, nil
}

// FeedCreatedArticles lists the articles of authors the user follows,
// newest first.
//
// Errors: ValidationErrorsError, OffsetOverCountError, UnexpectedError.
func (s *ArticleService) FeedCreatedArticles(ctx context.Context, limit, offset *string, viewpoint domain.UserID) (ArticlePage, error) {
	params, err := validated(OpFeedCreatedArticles, domain.ValidateFeedParameters(limit, offset))
	if err != nil {
		return ArticlePage{}, err
	}

	followed, err := s.profiles.FilterFollowedBy(ctx, viewpoint)
	if err != nil {
		return ArticlePage{}, unexpected(OpFeedCreatedArticles, err)
	}
	if len(followed) == 0 {
		return paginateViews(OpFeedCreatedArticles, nil, params)
	}

	authors := make(map[domain.UserID]domain.Profile, len(followed))
	ids := make([]domain.UserID, 0, len(followed))
	for _, p := range followed {
		authors[p.ID] = p
		ids = append(ids, p.ID)
	}

	articles, err := s.articles.LatestByAuthors(ctx, ids, viewpoint)
	if err != nil {
		return ArticlePage{}, unexpected(OpFeedCreatedArticles, err)
	}

	views := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		author, ok := authors[a.AuthorID]
		if !ok {
			return ArticlePage{}, unexpected(OpFeedCreatedArticles,
				fmt.Errorf("author %d of article %d is not followed", a.AuthorID, a.ID))
		}
		views = append(views, ArticleView{Article: a, Author: author})
	}
	return paginateViews(OpFeedCreatedArticles, views, params)
}

// ShowCreatedArticle returns one article.
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *ArticleService) ShowCreatedArticle(ctx context.Context, slug *string, viewpoint *domain.UserID) (ArticleView, error) {
	sl, err := validated(OpShowCreatedArticle, domain.ValidateSlug(slug))
	if err != nil {
		return ArticleView{}, err
	}

	article, err := s.articles.FindBySlug(ctx, sl, viewpoint)
	if err != nil {
		return ArticleView{}, lookupFailure(OpShowCreatedArticle, err)
	}

	return s.view(ctx, OpShowCreatedArticle, article, viewpoint)
}

// CreateArticle publishes a new article written by authorID. The slug is
// generated.
//
// Errors: ValidationErrorsError, AlreadyExistsError, UnexpectedError.
func (s *ArticleService) CreateArticle(
	ctx context.Context,
	title, description, body *string,
	tagList []string,
	authorID domain.UserID,
) (ArticleView, error) {
	input, err := validated(OpCreateArticle,
		domain.ValidateUncreatedArticle(nil, title, description, body, tagList, authorID))
	if err != nil {
		return ArticleView{}, err
	}

	article, err := s.articles.Create(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return ArticleView{}, &AlreadyExistsError{Op: OpCreateArticle, Err: err}
		}
		return ArticleView{}, unexpected(OpCreateArticle, err)
	}

	publish(ctx, s.publisher, s.logger, domain.ArticleCreatedEvent(article))

	return s.view(ctx, OpCreateArticle, article, &authorID)
}

// UpdateCreatedArticle edits an article. Only its author may do so.
//
// Errors: ValidationErrorsError, NotFoundError, NotAuthorError,
// NothingToUpdateError, UnexpectedError.
func (s *ArticleService) UpdateCreatedArticle(
	ctx context.Context,
	slug *string,
	patch domain.ArticlePatch,
	actor domain.UserID,
) (ArticleView, error) {
	sl, err := validated(OpUpdateCreatedArticle, domain.ValidateSlug(slug))
	if err != nil {
		return ArticleView{}, err
	}

	current, err := s.articles.FindBySlug(ctx, sl, &actor)
	if err != nil {
		return ArticleView{}, lookupFailure(OpUpdateCreatedArticle, err)
	}

	if err := verifyAuthor(OpUpdateCreatedArticle, current.AuthorID, actor); err != nil {
		return ArticleView{}, err
	}

	update, err := validated(OpUpdateCreatedArticle, domain.ValidateUpdatableCreatedArticle(current, patch))
	if err != nil {
		return ArticleView{}, err
	}

	article, err := s.articles.Update(ctx, update, actor)
	if err != nil {
		return ArticleView{}, lookupFailure(OpUpdateCreatedArticle, err)
	}

	publish(ctx, s.publisher, s.logger, domain.ArticleUpdatedEvent(article))

	return s.view(ctx, OpUpdateCreatedArticle, article, &actor)
}

// DeleteCreatedArticle removes an article and its comments. Only its author
// may do so.
//
// Errors: ValidationErrorsError, NotFoundError, NotAuthorError, UnexpectedError.
func (s *ArticleService) DeleteCreatedArticle(ctx context.Context, slug *string, actor domain.UserID) error {
	sl, err := validated(OpDeleteCreatedArticle, domain.ValidateSlug(slug))
	if err != nil {
		return err
	}

	article, err := s.articles.FindBySlug(ctx, sl, &actor)
	if err != nil {
		return lookupFailure(OpDeleteCreatedArticle, err)
	}

	if err := verifyAuthor(OpDeleteCreatedArticle, article.AuthorID, actor); err != nil {
		return err
	}

	outcome, err := s.cascade.Delete(ctx, article.ID)
	if err != nil {
		return unexpected(OpDeleteCreatedArticle, err)
	}
	if outcome == CascadeRootNotFound {
		return &NotFoundError{Op: OpDeleteCreatedArticle, Err: domain.ErrArticleNotFound}
	}

	publish(ctx, s.publisher, s.logger, domain.ArticleDeletedEvent(article))

	return nil
}

// FavoriteArticle marks an article as favorited by the user.
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *ArticleService) FavoriteArticle(ctx context.Context, slug *string, userID domain.UserID) (ArticleView, error) {
	return s.toggleFavorite(ctx, OpFavoriteArticle, domain.EventArticleFavorited, slug, userID, s.articles.Favorite)
}

// UnfavoriteArticle removes the user's favorite.
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *ArticleService) UnfavoriteArticle(ctx context.Context, slug *string, userID domain.UserID) (ArticleView, error) {
	return s.toggleFavorite(ctx, OpUnfavoriteArticle, domain.EventArticleUnfavorited, slug, userID, s.articles.Unfavorite)
}

func (s *ArticleService) toggleFavorite(
	ctx context.Context,
	op, eventType string,
	slug *string,
	userID domain.UserID,
	apply func(context.Context, domain.Slug, domain.UserID) (domain.CreatedArticle, error),
) (ArticleView, error) {
	sl, err := validated(op, domain.ValidateSlug(slug))
	if err != nil {
		return ArticleView{}, err
	}

	article, err := apply(ctx, sl, userID)
	if err != nil {
		return ArticleView{}, lookupFailure(op, err)
	}

	publish(ctx, s.publisher, s.logger, domain.FavoriteEvent(eventType, userID, sl))

	return s.view(ctx, op, article, &userID)
}

// ListTags returns every tag in use.
//
// Errors: UnexpectedError.
func (s *ArticleService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, unexpected(OpListTags, err)
	}
	return tags, nil
}

// view attaches the author profile. A stored article whose author cannot be
// found is a broken invariant of the store, so it is reported as unexpected.
func (s *ArticleService) view(ctx context.Context, op string, article domain.CreatedArticle, viewpoint *domain.UserID) (ArticleView, error) {
	profiles, err := s.profiles.FilterByUserIDs(ctx, []domain.UserID{article.AuthorID}, viewpoint)
	if err != nil {
		return ArticleView{}, unexpected(op, err)
	}
	if len(profiles) == 0 {
		return ArticleView{}, unexpected(op, fmt.Errorf("author %d of article %d: %w", article.AuthorID, article.ID, domain.ErrProfileNotFound))
	}
	return ArticleView{Article: article, Author: profiles[0]}, nil
}

func paginateViews(op string, views []ArticleView, params domain.FeedParameters) (ArticlePage, error) {
	page, err := domain.Paginate(views, params.Limit, params.Offset)
	if err != nil {
		return ArticlePage{}, pageFailure(op, err)
	}
	return ArticlePage{Articles: page.Items, Count: page.Count}, nil
}

func pageFailure(op string, err error) error {
	var over *domain.OffsetOverCountError
	if errors.As(err, &over) {
		return &OffsetOverCountError{Op: op, Count: over.Count}
	}
	return unexpected(op, err)
}
