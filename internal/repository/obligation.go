package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tradeledger/internal/domain"
)

const obligationColumns = `id, kind, counterparty_id, total_cents, due_date, status, version, created_at, updated_at`

func (t sqlTx) CreateObligation(ctx context.Context, o *domain.Obligation) error {
	query := `
		INSERT INTO obligations (id, kind, counterparty_id, total_cents, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING version, created_at, updated_at
	`
	err := t.q.QueryRowContext(ctx, query,
		o.ID, o.Kind, o.CounterpartyID, o.Total, o.DueDate, o.Status,
	).Scan(&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert obligation: %w", err)
	}
	return nil
}

func (t sqlTx) GetObligation(ctx context.Context, id string) (*domain.Obligation, error) {
	return t.getObligation(ctx, id, false)
}

func (t sqlTx) GetObligationForUpdate(ctx context.Context, id string) (*domain.Obligation, error) {
	return t.getObligation(ctx, id, true)
}

func (t sqlTx) getObligation(ctx context.Context, id string, lock bool) (*domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var o domain.Obligation
	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.Kind, &o.CounterpartyID, &o.Total, &o.DueDate,
		&o.Status, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("obligation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get obligation: %w", err)
	}
	return &o, nil
}

func (t sqlTx) ListEligibleObligationsForUpdate(ctx context.Context, kind domain.ObligationKind, ids []string) ([]domain.Obligation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := []any{kind}
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE kind = $1
		  AND status IN ('UNPAID', 'PARTIALLY_PAID')
		  AND id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY due_date ASC, id ASC
		FOR UPDATE
	`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list eligible obligations: %w", err)
	}
	defer rows.Close()

	var out []domain.Obligation
	for rows.Next() {
		var o domain.Obligation
		if err := rows.Scan(
			&o.ID, &o.Kind, &o.CounterpartyID, &o.Total, &o.DueDate,
			&o.Status, &o.Version, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SetObligationStatus writes a derived status with an optimistic version
// check; a stale version means a concurrent writer won.
func (t sqlTx) SetObligationStatus(ctx context.Context, o *domain.Obligation, status domain.ObligationStatus) error {
	query := `
		UPDATE obligations
		SET status = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
	`
	res, err := t.q.ExecContext(ctx, query, status, o.ID, o.Version)
	if err != nil {
		return fmt.Errorf("update obligation status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ConcurrencyConflictf("obligation %s was modified concurrently", o.ID)
	}
	o.Status = status
	o.Version++
	return nil
}
