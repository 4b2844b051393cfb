package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/conduit/internal/domain"
)

// UserRepository implements storage.UserRepository using PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Register stores a new user.
func (r *UserRepository) Register(ctx context.Context, user domain.UnregisteredUser, passwordHash string) (domain.RegisteredUser, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, username, bio, image`,
		user.Email.String(),
		user.Username.String(),
		passwordHash,
	)

	return scanRegisteredUser(row, domain.ErrUserNotFound)
}

// FindByEmailWithPassword retrieves a user and its password hash.
func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email domain.Email) (domain.RegisteredUser, string, error) {
	db := getDB(ctx, r.pool)

	var (
		id                               int64
		mail, username, bio, image, hash string
	)
	err := db.QueryRow(ctx, `
		SELECT id, email, username, bio, image, password_hash
		FROM users WHERE email = $1`, email.String()).
		Scan(&id, &mail, &username, &bio, &image, &hash)
	if err != nil {
		return domain.RegisteredUser{}, "", mapLookupError(err, domain.ErrUserNotFound)
	}

	return registeredUser(id, mail, username, bio, image), hash, nil
}

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id domain.UserID) (domain.RegisteredUser, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `
		SELECT id, email, username, bio, image
		FROM users WHERE id = $1`, int64(id))

	return scanRegisteredUser(row, domain.ErrUserNotFound)
}

// Update saves a validated profile update.
func (r *UserRepository) Update(ctx context.Context, user domain.UpdatableRegisteredUser) (domain.RegisteredUser, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `
		UPDATE users SET
			email = $2,
			username = $3,
			bio = $4,
			image = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, username, bio, image`,
		int64(user.UserID),
		user.Email.String(),
		user.Username.String(),
		user.Bio.String(),
		user.Image.String(),
	)

	return scanRegisteredUser(row, domain.ErrUserNotFound)
}

func scanRegisteredUser(row scannable, notFound error) (domain.RegisteredUser, error) {
	var (
		id                          int64
		email, username, bio, image string
	)
	if err := row.Scan(&id, &email, &username, &bio, &image); err != nil {
		return domain.RegisteredUser{}, mapLookupError(err, notFound)
	}
	return registeredUser(id, email, username, bio, image), nil
}

// registeredUser rebuilds a user from stored columns, which were validated on write.
func registeredUser(id int64, email, username, bio, image string) domain.RegisteredUser {
	return domain.RegisteredUser{
		ID:       domain.UserID(id),
		Email:    domain.EmailFromTrusted(email),
		Username: domain.UsernameFromTrusted(username),
		Bio:      domain.BioFromTrusted(bio),
		Image:    domain.ImageFromTrusted(image),
	}
}
