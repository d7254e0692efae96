package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tradeledger/internal/domain"
)

const sessionColumns = `id, cash_register_id, opening_cents, status, opened_by, opened_at,
	closed_by, closed_at, closing_cents, expected_cents, difference_cents`

func (t sqlTx) CreateSession(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO cash_register_sessions (id, cash_register_id, opening_cents, status, opened_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING opened_at
	`
	err := t.q.QueryRowContext(ctx, query,
		s.ID, s.CashRegisterID, s.Opening, s.Status, s.OpenedBy,
	).Scan(&s.OpenedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (t sqlTx) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return t.getSession(ctx, id, false)
}

func (t sqlTx) GetSessionForUpdate(ctx context.Context, id string) (*domain.Session, error) {
	return t.getSession(ctx, id, true)
}

func (t sqlTx) getSession(ctx context.Context, id string, lock bool) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_register_sessions WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var s domain.Session
	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.CashRegisterID, &s.Opening, &s.Status, &s.OpenedBy, &s.OpenedAt,
		&s.ClosedBy, &s.ClosedAt, &s.Closing, &s.Expected, &s.Difference,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (t sqlTx) ListSessions(ctx context.Context, f SessionsFilter) ([]domain.Session, error) {
	base := `SELECT ` + sessionColumns + ` FROM cash_register_sessions`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.CashRegisterID != nil {
		where = append(where, fmt.Sprintf("cash_register_id = $%d", i))
		args = append(args, *f.CashRegisterID)
		i++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.OpenedFrom != nil {
		where = append(where, fmt.Sprintf("opened_at >= $%d", i))
		args = append(args, *f.OpenedFrom)
		i++
	}
	if f.OpenedTo != nil {
		where = append(where, fmt.Sprintf("opened_at <= $%d", i))
		args = append(args, *f.OpenedTo)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY opened_at DESC"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID, &s.CashRegisterID, &s.Opening, &s.Status, &s.OpenedBy, &s.OpenedAt,
			&s.ClosedBy, &s.ClosedAt, &s.Closing, &s.Expected, &s.Difference,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CloseSession freezes the counted, expected and difference amounts. The
// status guard makes a double close impossible even across processes.
func (t sqlTx) CloseSession(ctx context.Context, s *domain.Session) error {
	query := `
		UPDATE cash_register_sessions
		SET status = 'CLOSED', closed_by = $1, closed_at = $2,
		    closing_cents = $3, expected_cents = $4, difference_cents = $5
		WHERE id = $6 AND status = 'OPEN'
	`
	res, err := t.q.ExecContext(ctx, query,
		s.ClosedBy, s.ClosedAt, s.Closing, s.Expected, s.Difference, s.ID,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.InvalidStatef("session %s is already closed", s.ID)
	}
	s.Status = domain.SessionClosed
	return nil
}

func (t sqlTx) CreateMovement(ctx context.Context, m *domain.CashMovement) error {
	query := `
		INSERT INTO cash_movements (id, session_id, type, amount_cents, reason, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := t.q.QueryRowContext(ctx, query,
		m.ID, m.SessionID, m.Type, m.Amount, m.Reason, m.UserID,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (t sqlTx) ListMovements(ctx context.Context, sessionID string) ([]domain.CashMovement, error) {
	query := `
		SELECT id, session_id, type, amount_cents, reason, user_id, created_at
		FROM cash_movements
		WHERE session_id = $1
		ORDER BY created_at DESC
	`
	rows, err := t.q.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []domain.CashMovement
	for rows.Next() {
		var m domain.CashMovement
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.Type, &m.Amount, &m.Reason, &m.UserID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t sqlTx) SumMovements(ctx context.Context, sessionID string) (domain.Cents, error) {
	var sum domain.Cents
	err := t.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM cash_movements WHERE session_id = $1`,
		sessionID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

func (t sqlTx) CreateRefund(ctx context.Context, r *domain.Refund) error {
	query := `
		INSERT INTO refunds (id, session_id, method, amount_cents, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := t.q.QueryRowContext(ctx, query,
		r.ID, r.SessionID, r.Method, r.Amount, r.Reason,
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

func (t sqlTx) ListSessionRefunds(ctx context.Context, sessionID string) ([]domain.Refund, error) {
	query := `
		SELECT id, session_id, method, amount_cents, reason, created_at
		FROM refunds
		WHERE session_id = $1
		ORDER BY created_at
	`
	rows, err := t.q.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	var out []domain.Refund
	for rows.Next() {
		var r domain.Refund
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Method, &r.Amount, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan refund: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t sqlTx) SumCashRefunds(ctx context.Context, sessionID string) (domain.Cents, error) {
	var sum domain.Cents
	err := t.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM refunds WHERE session_id = $1 AND method = 'CASH'`,
		sessionID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum cash refunds: %w", err)
	}
	return sum, nil
}
