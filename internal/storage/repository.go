// Package storage defines the repository interfaces for data persistence.
//
// These interfaces are the contracts the use cases require from storage. The
// postgres package implements them for production and the memory package for
// tests and local development.
//
// A viewpoint is the user on whose behalf data is read. Following and
// Favorited flags are computed relative to it; nil means an anonymous reader.
package storage

import (
	"context"

	"github.com/mvaleed/conduit/internal/domain"
)

// UserRepository defines the operations for user account persistence.
type UserRepository interface {
	// Register stores a new user. Returns ErrAlreadyExists if email or username is taken.
	Register(ctx context.Context, user domain.UnregisteredUser, passwordHash string) (domain.RegisteredUser, error)

	// FindByEmailWithPassword returns the user and its password hash. Returns ErrUserNotFound.
	FindByEmailWithPassword(ctx context.Context, email domain.Email) (domain.RegisteredUser, string, error)

	// FindByID retrieves a user by ID. Returns ErrUserNotFound.
	FindByID(ctx context.Context, id domain.UserID) (domain.RegisteredUser, error)

	// Update saves a profile update. Returns ErrUserNotFound or ErrAlreadyExists.
	Update(ctx context.Context, user domain.UpdatableRegisteredUser) (domain.RegisteredUser, error)
}

// ProfileRepository defines the operations on public profiles and follows.
type ProfileRepository interface {
	// Show retrieves a profile by username. Returns ErrProfileNotFound.
	Show(ctx context.Context, username domain.Username, viewpoint *domain.UserID) (domain.Profile, error)

	// FilterByUserIDs returns the profiles of the given users. Unknown IDs are skipped.
	FilterByUserIDs(ctx context.Context, ids []domain.UserID, viewpoint *domain.UserID) ([]domain.Profile, error)

	// FilterFollowedBy returns every profile the user follows.
	FilterFollowedBy(ctx context.Context, userID domain.UserID) ([]domain.Profile, error)

	// Follow makes follower follow username. Idempotent. Returns ErrProfileNotFound.
	Follow(ctx context.Context, username domain.Username, follower domain.UserID) (domain.Profile, error)

	// Unfollow removes the follow. Idempotent. Returns ErrProfileNotFound.
	Unfollow(ctx context.Context, username domain.Username, follower domain.UserID) (domain.Profile, error)
}

// ArticleRepository defines the operations for article persistence.
type ArticleRepository interface {
	// FindBySlug retrieves an article. Returns ErrArticleNotFound.
	FindBySlug(ctx context.Context, slug domain.Slug, viewpoint *domain.UserID) (domain.CreatedArticle, error)

	// ListAll returns every article visible to the viewpoint with its author
	// and the usernames that favorited it. Order is unspecified.
	ListAll(ctx context.Context, viewpoint *domain.UserID) ([]domain.ArticleListing, error)

	// LatestByAuthors returns the articles of the given authors, newest first.
	LatestByAuthors(ctx context.Context, authorIDs []domain.UserID, viewpoint domain.UserID) ([]domain.CreatedArticle, error)

	// Create stores a new article. Returns ErrAlreadyExists if the slug is taken.
	Create(ctx context.Context, article domain.UncreatedArticle) (domain.CreatedArticle, error)

	// Update saves an article update. Returns ErrArticleNotFound.
	Update(ctx context.Context, article domain.UpdatableCreatedArticle, viewpoint domain.UserID) (domain.CreatedArticle, error)

	// Delete removes the article row only. Dependents are removed by the
	// caller within the same transaction. Returns ErrArticleNotFound.
	Delete(ctx context.Context, id domain.ArticleID) error

	// Favorite marks the article as favorited by the user. Idempotent.
	Favorite(ctx context.Context, slug domain.Slug, userID domain.UserID) (domain.CreatedArticle, error)

	// Unfavorite removes the favorite. Idempotent.
	Unfavorite(ctx context.Context, slug domain.Slug, userID domain.UserID) (domain.CreatedArticle, error)
}

// CommentRepository defines the operations for comment persistence.
type CommentRepository interface {
	// List returns the comments of an article, oldest first. Returns ErrArticleNotFound.
	List(ctx context.Context, slug domain.Slug) ([]domain.Comment, error)

	// Find retrieves one comment of an article. Returns ErrArticleNotFound or ErrCommentNotFound.
	Find(ctx context.Context, slug domain.Slug, id domain.CommentID) (domain.Comment, error)

	// Create stores a new comment. Returns ErrArticleNotFound.
	Create(ctx context.Context, slug domain.Slug, body domain.CommentBody, authorID domain.UserID) (domain.Comment, error)

	// Delete removes one comment. Returns ErrCommentNotFound.
	Delete(ctx context.Context, id domain.CommentID) error

	// DeleteAll removes every comment of an article.
	DeleteAll(ctx context.Context, articleID domain.ArticleID) error
}

// TagRepository lists the tags in use.
type TagRepository interface {
	List(ctx context.Context) ([]domain.Tag, error)
}

// Repositories bundles all repositories together.
// This makes it easy to pass around and inject dependencies.
type Repositories struct {
	Users    UserRepository
	Profiles ProfileRepository
	Articles ArticleRepository
	Comments CommentRepository
	Tags     TagRepository
}

// Transactor provides transaction support for operations that need atomicity.
// Not all operations need transactions, so we keep this separate.
type Transactor interface {
	// WithTransaction executes fn within a database transaction.
	// Repository calls made with the context passed to fn join that transaction.
	// If fn returns an error, the transaction is rolled back and the error is
	// returned unchanged. If fn succeeds, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
