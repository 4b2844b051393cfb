package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/conduit/internal/domain"
)

// ProfileRepository implements storage.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// profileColumns selects a profile from users u with following relative to
// the viewpoint bound at $1.
const profileColumns = `
	u.id, u.username, u.bio, u.image,
	EXISTS (
		SELECT 1 FROM follows fo
		WHERE fo.follower_id = $1 AND fo.followee_id = u.id
	) AS following`

func (r *ProfileRepository) Show(ctx context.Context, username domain.Username, viewpoint *domain.UserID) (domain.Profile, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `SELECT `+profileColumns+`
		FROM users u WHERE u.username = $2`,
		viewpointArg(viewpoint), username.String())

	return scanProfile(row)
}

// FilterByUserIDs returns profiles in the order of ids.
func (r *ProfileRepository) FilterByUserIDs(ctx context.Context, ids []domain.UserID, viewpoint *domain.UserID) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT `+profileColumns+`
		FROM users u WHERE u.id = ANY($2)
		ORDER BY array_position($2, u.id)`,
		viewpointArg(viewpoint), userIDs(ids))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

func (r *ProfileRepository) FilterFollowedBy(ctx context.Context, userID domain.UserID) ([]domain.Profile, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT `+profileColumns+`
		FROM users u
		JOIN follows f ON f.followee_id = u.id
		WHERE f.follower_id = $1
		ORDER BY u.id`, int64(userID))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// Follow is idempotent.
func (r *ProfileRepository) Follow(ctx context.Context, username domain.Username, follower domain.UserID) (domain.Profile, error) {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO follows (follower_id, followee_id)
		SELECT $1::bigint, u.id FROM users u WHERE u.username = $2
		ON CONFLICT DO NOTHING`,
		int64(follower), username.String())
	if err != nil {
		return domain.Profile{}, mapError(err)
	}

	return r.Show(ctx, username, &follower)
}

// Unfollow is idempotent.
func (r *ProfileRepository) Unfollow(ctx context.Context, username domain.Username, follower domain.UserID) (domain.Profile, error) {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		DELETE FROM follows f
		USING users u
		WHERE f.followee_id = u.id AND u.username = $2 AND f.follower_id = $1`,
		int64(follower), username.String())
	if err != nil {
		return domain.Profile{}, mapError(err)
	}

	return r.Show(ctx, username, &follower)
}

func scanProfile(row scannable) (domain.Profile, error) {
	var (
		id                   int64
		username, bio, image string
		following            bool
	)
	if err := row.Scan(&id, &username, &bio, &image, &following); err != nil {
		return domain.Profile{}, mapLookupError(err, domain.ErrProfileNotFound)
	}
	return domain.Profile{
		ID:        domain.UserID(id),
		Username:  domain.UsernameFromTrusted(username),
		Bio:       domain.BioFromTrusted(bio),
		Image:     domain.ImageFromTrusted(image),
		Following: following,
	}, nil
}

type rowIterator interface {
	scannable
	Next() bool
	Err() error
}

func collectProfiles(rows rowIterator) ([]domain.Profile, error) {
	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return profiles, nil
}

// viewpointArg binds an optional viewer; NULL never matches a follower or favorite.
func viewpointArg(viewpoint *domain.UserID) *int64 {
	if viewpoint == nil {
		return nil
	}
	v := int64(*viewpoint)
	return &v
}

func userIDs(ids []domain.UserID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
