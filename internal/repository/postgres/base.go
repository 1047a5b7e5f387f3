package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// BaseRepository provides common functionality for all repositories.
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository.
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance.
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// ext returns the executor for a statement: the caller's transaction
// when one is given, the pool otherwise.
func (r *BaseRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// WithTx executes a function within a transaction.
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
