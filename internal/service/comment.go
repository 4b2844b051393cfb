package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/event"
	"github.com/mvaleed/conduit/internal/storage"
)

// CommentView is a comment together with its author as seen by the reader.
type CommentView struct {
	Comment domain.Comment
	Author  domain.Profile
}

// CommentService handles comments on articles.
type CommentService struct {
	comments  storage.CommentRepository
	profiles  storage.ProfileRepository
	publisher event.Publisher
	logger    *logrus.Logger
}

func NewCommentService(
	comments storage.CommentRepository,
	profiles storage.ProfileRepository,
	publisher event.Publisher,
	logger *logrus.Logger,
) *CommentService {
	return &CommentService{
		comments:  comments,
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
	}
}

// ListComments returns the comments of an article, oldest first.
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *CommentService) ListComments(ctx context.Context, slug *string, viewpoint *domain.UserID) ([]CommentView, error) {
	sl, err := validated(OpListComments, domain.ValidateSlug(slug))
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.List(ctx, sl)
	if err != nil {
		return nil, lookupFailure(OpListComments, err)
	}
	if len(comments) == 0 {
		return []CommentView{}, nil
	}

	ids := make([]domain.UserID, 0, len(comments))
	seen := make(map[domain.UserID]struct{}, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.AuthorID]; !ok {
			seen[c.AuthorID] = struct{}{}
			ids = append(ids, c.AuthorID)
		}
	}

	profiles, err := s.profiles.FilterByUserIDs(ctx, ids, viewpoint)
	if err != nil {
		return nil, unexpected(OpListComments, err)
	}
	authors := make(map[domain.UserID]domain.Profile, len(profiles))
	for _, p := range profiles {
		authors[p.ID] = p
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		author, ok := authors[c.AuthorID]
		if !ok {
			return nil, unexpected(OpListComments,
				fmt.Errorf("author %d of comment %d: %w", c.AuthorID, c.ID, domain.ErrProfileNotFound))
		}
		views = append(views, CommentView{Comment: c, Author: author})
	}
	return views, nil
}

type newComment struct {
	slug domain.Slug
	body domain.CommentBody
}

// CreateComment adds a comment written by authorID to an article.
//
// Errors: ValidationErrorsError, NotFoundError, UnexpectedError.
func (s *CommentService) CreateComment(ctx context.Context, slug, body *string, authorID domain.UserID) (CommentView, error) {
	input, err := validated(OpCreateComment, domain.Accumulate2(
		domain.ValidateSlug(slug),
		domain.ValidateCommentBody(body),
		func(sl domain.Slug, b domain.CommentBody) newComment {
			return newComment{slug: sl, body: b}
		}))
	if err != nil {
		return CommentView{}, err
	}

	comment, err := s.comments.Create(ctx, input.slug, input.body, authorID)
	if err != nil {
		return CommentView{}, lookupFailure(OpCreateComment, err)
	}

	publish(ctx, s.publisher, s.logger, domain.CommentCreatedEvent(input.slug, comment))

	profiles, err := s.profiles.FilterByUserIDs(ctx, []domain.UserID{authorID}, &authorID)
	if err != nil {
		return CommentView{}, unexpected(OpCreateComment, err)
	}
	if len(profiles) == 0 {
		return CommentView{}, unexpected(OpCreateComment,
			fmt.Errorf("author %d: %w", authorID, domain.ErrProfileNotFound))
	}
	return CommentView{Comment: comment, Author: profiles[0]}, nil
}

type commentRef struct {
	slug domain.Slug
	id   domain.CommentID
}

// DeleteComment removes a comment. Only its author may do so.
//
// Errors: ValidationErrorsError, NotFoundError, NotAuthorError, UnexpectedError.
func (s *CommentService) DeleteComment(ctx context.Context, slug, id *string, actor domain.UserID) error {
	ref, err := validated(OpDeleteComment, domain.Accumulate2(
		domain.ValidateSlug(slug),
		domain.ValidateCommentID(id),
		func(sl domain.Slug, cid domain.CommentID) commentRef {
			return commentRef{slug: sl, id: cid}
		}))
	if err != nil {
		return err
	}

	comment, err := s.comments.Find(ctx, ref.slug, ref.id)
	if err != nil {
		return lookupFailure(OpDeleteComment, err)
	}

	if err := verifyAuthor(OpDeleteComment, comment.AuthorID, actor); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return lookupFailure(OpDeleteComment, err)
	}

	publish(ctx, s.publisher, s.logger, domain.CommentDeletedEvent(ref.slug, comment))

	return nil
}
