package domain

import "time"

// Allocation links one resource to one obligation with a fixed amount.
// Rows are immutable; amount changes are a detach plus a new allocation.
type Allocation struct {
	ID           string
	ResourceID   string
	ResourceKind ResourceKind
	ObligationID string
	Amount       Cents
	CreatedAt    time.Time
}
