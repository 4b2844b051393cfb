package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/conduit/internal/domain"
)

// CommentRepository implements storage.CommentRepository using PostgreSQL.
type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func (r *CommentRepository) articleID(ctx context.Context, db DBTX, slug domain.Slug) (int64, error) {
	var id int64
	err := db.QueryRow(ctx, `SELECT id FROM articles WHERE slug = $1`, slug.String()).Scan(&id)
	if err != nil {
		return 0, mapLookupError(err, domain.ErrArticleNotFound)
	}
	return id, nil
}

// List returns the comments of an article, oldest first.
func (r *CommentRepository) List(ctx context.Context, slug domain.Slug) ([]domain.Comment, error) {
	db := getDB(ctx, r.pool)

	articleID, err := r.articleID(ctx, db, slug)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT id, body, created_at, updated_at, author_id
		FROM comments WHERE article_id = $1
		ORDER BY id`, articleID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return comments, nil
}

func (r *CommentRepository) Find(ctx context.Context, slug domain.Slug, id domain.CommentID) (domain.Comment, error) {
	db := getDB(ctx, r.pool)

	articleID, err := r.articleID(ctx, db, slug)
	if err != nil {
		return domain.Comment{}, err
	}

	row := db.QueryRow(ctx, `
		SELECT id, body, created_at, updated_at, author_id
		FROM comments WHERE id = $1 AND article_id = $2`,
		int64(id), articleID)

	return scanComment(row)
}

func (r *CommentRepository) Create(ctx context.Context, slug domain.Slug, body domain.CommentBody, authorID domain.UserID) (domain.Comment, error) {
	db := getDB(ctx, r.pool)

	articleID, err := r.articleID(ctx, db, slug)
	if err != nil {
		return domain.Comment{}, err
	}

	row := db.QueryRow(ctx, `
		INSERT INTO comments (body, article_id, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, body, created_at, updated_at, author_id`,
		body.String(), articleID, int64(authorID))

	return scanComment(row)
}

func (r *CommentRepository) Delete(ctx context.Context, id domain.CommentID) error {
	db := getDB(ctx, r.pool)

	result, err := db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, int64(id))
	if err != nil {
		return mapError(err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// DeleteAll removes every comment of an article. Deleting none is not an error.
func (r *CommentRepository) DeleteAll(ctx context.Context, articleID domain.ArticleID) error {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `DELETE FROM comments WHERE article_id = $1`, int64(articleID))
	return mapError(err)
}

func scanComment(row scannable) (domain.Comment, error) {
	var (
		id, authorID         int64
		body                 string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &body, &createdAt, &updatedAt, &authorID); err != nil {
		return domain.Comment{}, mapLookupError(err, domain.ErrCommentNotFound)
	}
	return domain.Comment{
		ID:        domain.CommentID(id),
		Body:      domain.CommentBodyFromTrusted(body),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		AuthorID:  domain.UserID(authorID),
	}, nil
}

// TagRepository implements storage.TagRepository using PostgreSQL.
type TagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

// List returns the distinct tags of all articles in lexical order.
func (r *TagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `
		SELECT DISTINCT tag
		FROM articles, unnest(tag_list) AS tag
		ORDER BY tag`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return domain.TagsFromTrusted(names), nil
}
