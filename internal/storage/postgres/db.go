// Package postgres implements the storage interfaces using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/storage"
)

// DB wraps the PostgreSQL connection pool and provides access to repositories.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL database connection.
func New(ctx context.Context, connString string) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes all connections in the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Repositories returns all repositories backed by this database.
func (db *DB) Repositories() *storage.Repositories {
	return &storage.Repositories{
		Users:    NewUserRepository(db.pool),
		Profiles: NewProfileRepository(db.pool),
		Articles: NewArticleRepository(db.pool),
		Comments: NewCommentRepository(db.pool),
		Tags:     NewTagRepository(db.pool),
	}
}

// WithTransaction implements storage.Transactor.
// Repositories called with the context passed to fn run inside the transaction.
// A nested call joins the outer transaction.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", mapError(err))
	}

	return nil
}

// txKey is the context key for the transaction.
type txKey struct{}

// DBTX is the interface satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getDB returns the transaction from context if present, otherwise the pool.
func getDB(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

const (
	uniqueViolationCode = "23505"
	foreignKeyViolation = "23503"
)

// mapError converts PostgreSQL errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrAlreadyExists)
		case foreignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict)
		}
	}

	return err
}

// mapLookupError is mapError with a no-rows result reported as notFound.
func mapLookupError(err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return mapError(err)
}

// scannable is satisfied by both pgx.Row and pgx.Rows
type scannable interface {
	Scan(dest ...any) error
}
