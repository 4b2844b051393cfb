package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/conduit/internal/domain"
)

// ArticleRepository implements storage.ArticleRepository using PostgreSQL.
type ArticleRepository struct {
	pool *pgxpool.Pool
}

func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

// articleColumns selects an article from articles a with favorited relative
// to the viewpoint bound at $1.
const articleColumns = `
	a.id, a.slug, a.title, a.description, a.body, a.tag_list, a.author_id,
	a.created_at, a.updated_at,
	EXISTS (
		SELECT 1 FROM favorites f
		WHERE f.article_id = a.id AND f.user_id = $1
	) AS favorited,
	(SELECT COUNT(*) FROM favorites f WHERE f.article_id = a.id) AS favorites_count`

func (r *ArticleRepository) FindBySlug(ctx context.Context, slug domain.Slug, viewpoint *domain.UserID) (domain.CreatedArticle, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `SELECT `+articleColumns+`
		FROM articles a WHERE a.slug = $2`,
		viewpointArg(viewpoint), slug.String())

	return scanArticle(row)
}

func (r *ArticleRepository) findByID(ctx context.Context, id domain.ArticleID, viewpoint domain.UserID) (domain.CreatedArticle, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `SELECT `+articleColumns+`
		FROM articles a WHERE a.id = $2`,
		int64(viewpoint), int64(id))

	return scanArticle(row)
}

// ListAll returns every article with its author and favoriting usernames.
func (r *ArticleRepository) ListAll(ctx context.Context, viewpoint *domain.UserID) ([]domain.ArticleListing, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT `+articleColumns+`,
		u.username, u.bio, u.image,
		EXISTS (
			SELECT 1 FROM follows fo
			WHERE fo.follower_id = $1 AND fo.followee_id = u.id
		) AS following,
		COALESCE((
			SELECT array_agg(fu.username ORDER BY fu.username)
			FROM favorites f JOIN users fu ON fu.id = f.user_id
			WHERE f.article_id = a.id
		), '{}') AS favorited_by
		FROM articles a
		JOIN users u ON u.id = a.author_id`,
		viewpointArg(viewpoint))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	listings := []domain.ArticleListing{}
	for rows.Next() {
		var (
			c                    articleCols
			username, bio, image string
			following            bool
			favoritedBy          []string
		)
		dest := append(c.dest(), &username, &bio, &image, &following, &favoritedBy)
		if err := rows.Scan(dest...); err != nil {
			return nil, mapError(err)
		}

		article := c.article()
		fans := make([]domain.Username, len(favoritedBy))
		for i, name := range favoritedBy {
			fans[i] = domain.UsernameFromTrusted(name)
		}
		listings = append(listings, domain.ArticleListing{
			Article: article,
			Author: domain.OtherUser{
				ID:        article.AuthorID,
				Username:  domain.UsernameFromTrusted(username),
				Bio:       domain.BioFromTrusted(bio),
				Image:     domain.ImageFromTrusted(image),
				Following: following,
			},
			FavoritedBy: fans,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return listings, nil
}

// LatestByAuthors returns the articles of the given authors, newest first.
func (r *ArticleRepository) LatestByAuthors(ctx context.Context, authorIDs []domain.UserID, viewpoint domain.UserID) ([]domain.CreatedArticle, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT `+articleColumns+`
		FROM articles a
		WHERE a.author_id = ANY($2)
		ORDER BY a.created_at DESC, a.id DESC`,
		int64(viewpoint), userIDs(authorIDs))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	articles := []domain.CreatedArticle{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return articles, nil
}

func (r *ArticleRepository) Create(ctx context.Context, article domain.UncreatedArticle) (domain.CreatedArticle, error) {
	db := getDB(ctx, r.pool)

	var (
		id                   int64
		createdAt, updatedAt time.Time
	)
	err := db.QueryRow(ctx, `
		INSERT INTO articles (slug, title, description, body, tag_list, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		article.Slug.String(),
		article.Title.String(),
		article.Description.String(),
		article.Body.String(),
		domain.TagStrings(article.TagList),
		int64(article.AuthorID),
	).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		return domain.CreatedArticle{}, mapError(err)
	}

	return domain.CreatedArticle{
		ID:          domain.ArticleID(id),
		Title:       article.Title,
		Slug:        article.Slug,
		Body:        article.Body,
		Description: article.Description,
		TagList:     article.TagList,
		AuthorID:    article.AuthorID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (r *ArticleRepository) Update(ctx context.Context, article domain.UpdatableCreatedArticle, viewpoint domain.UserID) (domain.CreatedArticle, error) {
	db := getDB(ctx, r.pool)

	result, err := db.Exec(ctx, `
		UPDATE articles SET
			title = $2,
			description = $3,
			body = $4,
			updated_at = NOW()
		WHERE id = $1`,
		int64(article.ArticleID),
		article.Title.String(),
		article.Description.String(),
		article.Body.String(),
	)
	if err != nil {
		return domain.CreatedArticle{}, mapError(err)
	}
	if result.RowsAffected() == 0 {
		return domain.CreatedArticle{}, domain.ErrArticleNotFound
	}

	return r.findByID(ctx, article.ArticleID, viewpoint)
}

// Delete removes the article row. Favorites go with it; comments must be
// deleted in the same transaction before commit.
func (r *ArticleRepository) Delete(ctx context.Context, id domain.ArticleID) error {
	db := getDB(ctx, r.pool)

	result, err := db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, int64(id))
	if err != nil {
		return mapError(err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrArticleNotFound
	}

	return nil
}

// Favorite is idempotent.
func (r *ArticleRepository) Favorite(ctx context.Context, slug domain.Slug, userID domain.UserID) (domain.CreatedArticle, error) {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO favorites (user_id, article_id)
		SELECT $1::bigint, a.id FROM articles a WHERE a.slug = $2
		ON CONFLICT DO NOTHING`,
		int64(userID), slug.String())
	if err != nil {
		return domain.CreatedArticle{}, mapError(err)
	}

	return r.FindBySlug(ctx, slug, &userID)
}

// Unfavorite is idempotent.
func (r *ArticleRepository) Unfavorite(ctx context.Context, slug domain.Slug, userID domain.UserID) (domain.CreatedArticle, error) {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		DELETE FROM favorites f
		USING articles a
		WHERE f.article_id = a.id AND a.slug = $2 AND f.user_id = $1`,
		int64(userID), slug.String())
	if err != nil {
		return domain.CreatedArticle{}, mapError(err)
	}

	return r.FindBySlug(ctx, slug, &userID)
}

// articleCols receives the columns of articleColumns.
type articleCols struct {
	id                      int64
	slug, title, desc, body string
	tags                    []string
	authorID                int64
	createdAt, updatedAt    time.Time
	favorited               bool
	favoritesCount          int64
}

func (c *articleCols) dest() []any {
	return []any{
		&c.id, &c.slug, &c.title, &c.desc, &c.body, &c.tags, &c.authorID,
		&c.createdAt, &c.updatedAt, &c.favorited, &c.favoritesCount,
	}
}

func (c *articleCols) article() domain.CreatedArticle {
	return domain.CreatedArticle{
		ID:             domain.ArticleID(c.id),
		Title:          domain.TitleFromTrusted(c.title),
		Slug:           domain.SlugFromTrusted(c.slug),
		Body:           domain.ArticleBodyFromTrusted(c.body),
		Description:    domain.DescriptionFromTrusted(c.desc),
		TagList:        domain.TagsFromTrusted(c.tags),
		AuthorID:       domain.UserID(c.authorID),
		CreatedAt:      c.createdAt,
		UpdatedAt:      c.updatedAt,
		Favorited:      c.favorited,
		FavoritesCount: int(c.favoritesCount),
	}
}

func scanArticle(row scannable) (domain.CreatedArticle, error) {
	var c articleCols
	if err := row.Scan(c.dest()...); err != nil {
		return domain.CreatedArticle{}, mapLookupError(err, domain.ErrArticleNotFound)
	}
	return c.article(), nil
}
