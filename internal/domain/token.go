package domain

import "time"

type APIToken struct {
	ID        int64
	TokenHash string
	UserID    int64
	ExpiresAt *time.Time
}
