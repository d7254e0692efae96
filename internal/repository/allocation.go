package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradeledger/internal/domain"
)

const allocationColumns = `id, resource_id, resource_kind, obligation_id, amount_cents, created_at`

func (t sqlTx) CreateAllocation(ctx context.Context, a *domain.Allocation) error {
	query := `
		INSERT INTO allocations (id, resource_id, resource_kind, obligation_id, amount_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := t.q.QueryRowContext(ctx, query,
		a.ID, a.ResourceID, a.ResourceKind, a.ObligationID, a.Amount,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (t sqlTx) GetAllocation(ctx context.Context, id string) (*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1`

	var a domain.Allocation
	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ResourceID, &a.ResourceKind, &a.ObligationID, &a.Amount, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("allocation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return &a, nil
}

func (t sqlTx) DeleteAllocation(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM allocations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundf("allocation %s not found", id)
	}
	return nil
}

func (t sqlTx) DeleteObligationAllocations(ctx context.Context, obligationID string) ([]domain.Allocation, error) {
	query := `
		DELETE FROM allocations
		WHERE obligation_id = $1
		RETURNING ` + allocationColumns + `
	`
	rows, err := t.q.QueryContext(ctx, query, obligationID)
	if err != nil {
		return nil, fmt.Errorf("delete obligation allocations: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (t sqlTx) ListObligationAllocations(ctx context.Context, obligationID string) ([]domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE obligation_id = $1 ORDER BY created_at`

	rows, err := t.q.QueryContext(ctx, query, obligationID)
	if err != nil {
		return nil, fmt.Errorf("list obligation allocations: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (t sqlTx) ListResourceAllocations(ctx context.Context, resourceID string) ([]domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE resource_id = $1 ORDER BY created_at`

	rows, err := t.q.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list resource allocations: %w", err)
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (t sqlTx) SumObligationAllocations(ctx context.Context, obligationID string) (domain.Cents, error) {
	var sum domain.Cents
	err := t.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM allocations WHERE obligation_id = $1`,
		obligationID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum obligation allocations: %w", err)
	}
	return sum, nil
}

func (t sqlTx) SumResourceAllocations(ctx context.Context, resourceID string) (domain.Cents, error) {
	var sum domain.Cents
	err := t.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM allocations WHERE resource_id = $1`,
		resourceID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum resource allocations: %w", err)
	}
	return sum, nil
}

func scanAllocations(rows *sql.Rows) ([]domain.Allocation, error) {
	var out []domain.Allocation
	for rows.Next() {
		var a domain.Allocation
		if err := rows.Scan(
			&a.ID, &a.ResourceID, &a.ResourceKind, &a.ObligationID, &a.Amount, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
