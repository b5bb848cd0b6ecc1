// Package postgres implements the repository contracts on PostgreSQL.
//
// All queries are plain SQL through pgx, no ORM. The one-valid-vote-per
// (user, product) invariant is enforced by a unique index plus expired-row
// eviction inside a single transaction, so concurrent duplicate submissions
// are resolved by the database, not by application-side read-then-write.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velure/glowrank/internal/adapters/repository"
	"github.com/velure/glowrank/internal/domain/model"
	"github.com/velure/glowrank/pkg/metrics"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so the store's query
// methods work both inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements repository.Store on a pgx connection pool. Reads go
// through db so helpers shared with transactional paths stay reusable;
// the pool itself is only needed to begin transactions.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// New creates a Store from an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Connect opens a pool for the given DSN and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, db: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// schema holds the tables and indexes the store depends on. The unique
// index on vote_records carries the admission invariant.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    category     TEXT NOT NULL,
    subcategory  TEXT NOT NULL,
    rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
    likes        INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0)
);
CREATE INDEX IF NOT EXISTS products_scope_idx ON products (category, subcategory);

CREATE TABLE IF NOT EXISTS vote_records (
    id          UUID PRIMARY KEY,
    user_id     TEXT NOT NULL,
    product_id  TEXT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS vote_records_pair_idx ON vote_records (user_id, product_id);
CREATE INDEX IF NOT EXISTS vote_records_created_idx ON vote_records (created_at);

CREATE TABLE IF NOT EXISTS product_likes (
    user_id     TEXT NOT NULL,
    product_id  TEXT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, product_id)
);
`

// EnsureSchema creates the store's tables and indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) ProductsByScope(ctx context.Context, scope model.Scope) ([]model.Product, error) {
	if scope.Category == "" {
		return nil, repository.ErrInvalidScope
	}
	defer observe(time.Now())

	const base = `
SELECT id, name, category, subcategory, rating, likes
FROM products
WHERE category = $1`

	var rows pgx.Rows
	var err error
	if scope.Subcategory != "" {
		rows, err = s.db.Query(ctx, base+` AND subcategory = $2 ORDER BY id`, scope.Category, scope.Subcategory)
	} else {
		rows, err = s.db.Query(ctx, base+` ORDER BY id`, scope.Category)
	}
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Subcategory, &p.Rating, &p.Likes); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (s *Store) ProductByID(ctx context.Context, id string) (model.Product, error) {
	defer observe(time.Now())
	return productByID(ctx, s.db, id)
}

// productByID reads one product through db, which may be the pool or an
// open transaction.
func productByID(ctx context.Context, db DBTX, id string) (model.Product, error) {
	const q = `
SELECT id, name, category, subcategory, rating, likes
FROM products
WHERE id = $1`

	var p model.Product
	err := db.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Category, &p.Subcategory, &p.Rating, &p.Likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (s *Store) SetLike(ctx context.Context, userID, productID string, liked bool) (int, error) {
	defer observe(time.Now())

	likes, err := withTx(ctx, s.pool, func(tx pgx.Tx) (int, error) {
		if liked {
			tag, err := tx.Exec(ctx, `
INSERT INTO product_likes (user_id, product_id) VALUES ($1, $2)
ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
			if err != nil {
				if isForeignKeyViolation(err) {
					return 0, repository.ErrNotFound
				}
				return 0, fmt.Errorf("insert like: %w", err)
			}
			if tag.RowsAffected() > 0 {
				if _, err := tx.Exec(ctx, `UPDATE products SET likes = likes + 1 WHERE id = $1`, productID); err != nil {
					return 0, fmt.Errorf("bump likes: %w", err)
				}
			}
		} else {
			tag, err := tx.Exec(ctx, `
DELETE FROM product_likes WHERE user_id = $1 AND product_id = $2`, userID, productID)
			if err != nil {
				return 0, fmt.Errorf("delete like: %w", err)
			}
			if tag.RowsAffected() > 0 {
				if _, err := tx.Exec(ctx, `
UPDATE products SET likes = GREATEST(likes - 1, 0) WHERE id = $1`, productID); err != nil {
					return 0, fmt.Errorf("drop likes: %w", err)
				}
			}
		}

		p, err := productByID(ctx, tx, productID)
		if err != nil {
			return 0, err
		}
		return p.Likes, nil
	})
	return likes, err
}

func (s *Store) InsertVote(ctx context.Context, v model.VoteRecord, validSince time.Time) error {
	defer observe(time.Now())

	_, err := withTx(ctx, s.pool, func(tx pgx.Tx) (struct{}, error) {
		// Evict an expired record for the pair so the unique index only
		// ever guards votes that still count.
		if _, err := tx.Exec(ctx, `
DELETE FROM vote_records
WHERE user_id = $1 AND product_id = $2 AND created_at <= $3`,
			v.UserID, v.ProductID, validSince); err != nil {
			return struct{}{}, fmt.Errorf("evict expired vote: %w", err)
		}

		tag, err := tx.Exec(ctx, `
INSERT INTO vote_records (id, user_id, product_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, product_id) DO NOTHING`,
			v.ID, v.UserID, v.ProductID, v.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return struct{}{}, repository.ErrDuplicateVote
			}
			if isForeignKeyViolation(err) {
				return struct{}{}, repository.ErrNotFound
			}
			return struct{}{}, fmt.Errorf("insert vote: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return struct{}{}, repository.ErrDuplicateVote
		}
		return struct{}{}, nil
	})
	return err
}

func (s *Store) ValidVotes(ctx context.Context, productIDs []string, cutoff time.Time) (map[string][]model.VoteRecord, error) {
	out := make(map[string][]model.VoteRecord)
	if len(productIDs) == 0 {
		return out, nil
	}
	defer observe(time.Now())

	const q = `
SELECT id, user_id, product_id, created_at
FROM vote_records
WHERE product_id = ANY($1) AND created_at > $2
ORDER BY product_id, created_at`

	rows, err := s.db.Query(ctx, q, productIDs, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.VoteRecord
		if err := rows.Scan(&v.ID, &v.UserID, &v.ProductID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	defer observe(time.Now())

	tag, err := s.db.Exec(ctx, `DELETE FROM vote_records WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired votes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func withTx[T any](ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) (T, error)) (T, error) {
	var zero T
	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("begin tx: %w", err)
	}
	out, err := fn(tx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("commit tx: %w", err)
	}
	return out, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func observe(start time.Time) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
}
