package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradeledger/internal/domain"
)

const resourceColumns = `id, kind, counterparty_id, total_cents, method, COALESCE(session_id::text, ''), status, version, created_at, updated_at`

func (t sqlTx) CreateResource(ctx context.Context, r *domain.Resource) error {
	query := `
		INSERT INTO resources (id, kind, counterparty_id, total_cents, method, session_id, status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7)
		RETURNING version, created_at, updated_at
	`
	err := t.q.QueryRowContext(ctx, query,
		r.ID, r.Kind, r.CounterpartyID, r.Total, r.Method, r.SessionID, r.Status,
	).Scan(&r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (t sqlTx) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	return t.getResource(ctx, id, false)
}

func (t sqlTx) GetResourceForUpdate(ctx context.Context, id string) (*domain.Resource, error) {
	return t.getResource(ctx, id, true)
}

func (t sqlTx) getResource(ctx context.Context, id string, lock bool) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var r domain.Resource
	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Kind, &r.CounterpartyID, &r.Total, &r.Method, &r.SessionID,
		&r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("resource %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return &r, nil
}

func (t sqlTx) SetResourceStatus(ctx context.Context, r *domain.Resource, status domain.ResourceStatus) error {
	query := `
		UPDATE resources
		SET status = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
	`
	res, err := t.q.ExecContext(ctx, query, status, r.ID, r.Version)
	if err != nil {
		return fmt.Errorf("update resource status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ConcurrencyConflictf("resource %s was modified concurrently", r.ID)
	}
	r.Status = status
	r.Version++
	return nil
}

func (t sqlTx) ListSessionResources(ctx context.Context, sessionID string) ([]domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE session_id = $1 ORDER BY created_at`

	rows, err := t.q.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session resources: %w", err)
	}
	defer rows.Close()

	var out []domain.Resource
	for rows.Next() {
		var r domain.Resource
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.CounterpartyID, &r.Total, &r.Method, &r.SessionID,
			&r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SumSessionCash totals cash-method resources captured against a session.
func (t sqlTx) SumSessionCash(ctx context.Context, sessionID string) (domain.Cents, error) {
	query := `
		SELECT COALESCE(SUM(total_cents), 0)
		FROM resources
		WHERE session_id = $1 AND method = 'CASH'
	`
	var sum domain.Cents
	if err := t.q.QueryRowContext(ctx, query, sessionID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum session cash: %w", err)
	}
	return sum, nil
}
