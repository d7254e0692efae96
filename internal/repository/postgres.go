package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ensure SQLStore implements Store.
var _ Store = (*SQLStore)(nil)

// SQLStore is the Postgres-backed ledger store.
type SQLStore struct {
	sqlTx
	db *sql.DB
}

// sqlTx carries the per-entity query methods; q is the pool outside a
// transaction and the open *sql.Tx inside one.
type sqlTx struct {
	q querier
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{sqlTx: sqlTx{q: db}, db: db}
}

// WithinTx runs fn inside one database transaction. Any error rolls the
// whole operation back.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(sqlTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
