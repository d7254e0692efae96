package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeledger/internal/domain"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// FindByPlainToken resolves a bearer token to its stored record. Tokens live
// in the database as sha256 hex of the plain value, so a leaked dump is not a
// set of usable credentials.
func (r *TokenRepository) FindByPlainToken(ctx context.Context, plain string) (*domain.APIToken, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, errors.New("empty token")
	}

	sum := sha256.Sum256([]byte(plain))
	hash := fmt.Sprintf("%x", sum)

	query := `
		SELECT id, token_hash, user_id, expires_at
		FROM api_tokens
		WHERE token_hash = $1
		  AND (expires_at IS NULL OR expires_at > $2)
	`

	var t domain.APIToken
	err := r.db.QueryRowContext(ctx, query, hash, time.Now()).Scan(
		&t.ID, &t.TokenHash, &t.UserID, &t.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &t, nil
}
