package service

import (
	"context"
	"errors"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/storage"
)

// CascadeOutcome is the business result of a cascading delete.
type CascadeOutcome int

const (
	// CascadeFailed accompanies a returned error. Nothing changed.
	CascadeFailed CascadeOutcome = iota
	// CascadeDeleted means the root and all of its dependents were removed.
	CascadeDeleted
	// CascadeRootNotFound means there was no root to delete. Nothing changed.
	CascadeRootNotFound
)

func (o CascadeOutcome) String() string {
	switch o {
	case CascadeFailed:
		return "failed"
	case CascadeDeleted:
		return "deleted"
	case CascadeRootNotFound:
		return "root_not_found"
	default:
		return "unknown"
	}
}

// ArticleCascade deletes an article together with its comments inside one
// transaction. Both repository calls receive the transaction context, so
// the repositories must be backed by the same store as the Transactor.
type ArticleCascade struct {
	tx       storage.Transactor
	articles storage.ArticleRepository
	comments storage.CommentRepository
}

func NewArticleCascade(tx storage.Transactor, articles storage.ArticleRepository, comments storage.CommentRepository) *ArticleCascade {
	return &ArticleCascade{
		tx:       tx,
		articles: articles,
		comments: comments,
	}
}

// Delete removes the article row first and then its comments.
//
// A missing article is reported as CascadeRootNotFound with a nil error.
// Any other failure, including one from the comment delete, rolls the whole
// transaction back and is returned unchanged.
func (c *ArticleCascade) Delete(ctx context.Context, id domain.ArticleID) (CascadeOutcome, error) {
	outcome := CascadeDeleted

	err := c.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := c.articles.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				outcome = CascadeRootNotFound
				return nil
			}
			return err
		}
		return c.comments.DeleteAll(ctx, id)
	})
	if err != nil {
		return CascadeFailed, err
	}

	return outcome, nil
}
