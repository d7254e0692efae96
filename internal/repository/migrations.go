package repository

import "database/sql"

// Schema statements run at startup. Each string is a single statement so
// failures point at the offending table.
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS obligations (
			id              UUID PRIMARY KEY,
			kind            TEXT NOT NULL,
			counterparty_id TEXT NOT NULL,
			total_cents     BIGINT NOT NULL,
			due_date        TIMESTAMPTZ NOT NULL,
			status          TEXT NOT NULL DEFAULT 'UNPAID',
			version         BIGINT NOT NULL DEFAULT 1,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_obligations_counterparty ON obligations(counterparty_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obligations_status ON obligations(kind, status)`,

		`CREATE TABLE IF NOT EXISTS resources (
			id              UUID PRIMARY KEY,
			kind            TEXT NOT NULL,
			counterparty_id TEXT NOT NULL,
			total_cents     BIGINT NOT NULL,
			method          TEXT NOT NULL DEFAULT 'OTHER',
			session_id      UUID,
			status          TEXT NOT NULL DEFAULT 'AVAILABLE',
			version         BIGINT NOT NULL DEFAULT 1,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_counterparty ON resources(counterparty_id)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_session ON resources(session_id)`,

		`CREATE TABLE IF NOT EXISTS allocations (
			id            UUID PRIMARY KEY,
			resource_id   UUID NOT NULL REFERENCES resources(id),
			resource_kind TEXT NOT NULL,
			obligation_id UUID NOT NULL REFERENCES obligations(id),
			amount_cents  BIGINT NOT NULL CHECK (amount_cents > 0),
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_resource ON allocations(resource_id)`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_obligation ON allocations(obligation_id)`,

		`CREATE TABLE IF NOT EXISTS cash_register_sessions (
			id               UUID PRIMARY KEY,
			cash_register_id TEXT NOT NULL,
			opening_cents    BIGINT NOT NULL,
			status           TEXT NOT NULL DEFAULT 'OPEN',
			opened_by        BIGINT NOT NULL DEFAULT 0,
			opened_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			closed_by        BIGINT,
			closed_at        TIMESTAMPTZ,
			closing_cents    BIGINT NOT NULL DEFAULT 0,
			expected_cents   BIGINT NOT NULL DEFAULT 0,
			difference_cents BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_register ON cash_register_sessions(cash_register_id, opened_at)`,

		`CREATE TABLE IF NOT EXISTS cash_movements (
			id           UUID PRIMARY KEY,
			session_id   UUID NOT NULL REFERENCES cash_register_sessions(id),
			type         TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			reason       TEXT NOT NULL DEFAULT '',
			user_id      BIGINT NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movements_session ON cash_movements(session_id)`,

		`CREATE TABLE IF NOT EXISTS refunds (
			id           UUID PRIMARY KEY,
			session_id   UUID NOT NULL REFERENCES cash_register_sessions(id),
			method       TEXT NOT NULL,
			amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
			reason       TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refunds_session ON refunds(session_id)`,

		`CREATE TABLE IF NOT EXISTS api_tokens (
			id         BIGSERIAL PRIMARY KEY,
			token_hash TEXT NOT NULL UNIQUE,
			user_id    BIGINT NOT NULL,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
}

// Migrate creates the schema if it does not exist yet.
func Migrate(db *sql.DB) error {
	for _, stmt := range migrations() {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
