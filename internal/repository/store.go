package repository

import (
	"context"
	"time"

	"tradeledger/internal/domain"
)

// SessionsFilter narrows session history queries.
type SessionsFilter struct {
	CashRegisterID *string
	Status         *domain.SessionStatus
	OpenedFrom     *time.Time
	OpenedTo       *time.Time
}

// Tx is the set of ledger operations available inside one transaction.
// The ForUpdate variants take row locks in the SQL implementation so that
// concurrent allocator runs against the same rows serialize.
type Tx interface {
	CreateObligation(ctx context.Context, o *domain.Obligation) error
	GetObligation(ctx context.Context, id string) (*domain.Obligation, error)
	GetObligationForUpdate(ctx context.Context, id string) (*domain.Obligation, error)
	// ListEligibleObligationsForUpdate loads the requested obligations that
	// can still receive allocations, ordered by due date ascending then id.
	ListEligibleObligationsForUpdate(ctx context.Context, kind domain.ObligationKind, ids []string) ([]domain.Obligation, error)
	SetObligationStatus(ctx context.Context, o *domain.Obligation, status domain.ObligationStatus) error

	CreateResource(ctx context.Context, r *domain.Resource) error
	GetResource(ctx context.Context, id string) (*domain.Resource, error)
	GetResourceForUpdate(ctx context.Context, id string) (*domain.Resource, error)
	SetResourceStatus(ctx context.Context, r *domain.Resource, status domain.ResourceStatus) error

	CreateAllocation(ctx context.Context, a *domain.Allocation) error
	GetAllocation(ctx context.Context, id string) (*domain.Allocation, error)
	DeleteAllocation(ctx context.Context, id string) error
	// DeleteObligationAllocations removes every allocation against the
	// obligation and returns the deleted rows so callers can recompute the
	// affected resources.
	DeleteObligationAllocations(ctx context.Context, obligationID string) ([]domain.Allocation, error)
	ListObligationAllocations(ctx context.Context, obligationID string) ([]domain.Allocation, error)
	ListResourceAllocations(ctx context.Context, resourceID string) ([]domain.Allocation, error)
	SumObligationAllocations(ctx context.Context, obligationID string) (domain.Cents, error)
	SumResourceAllocations(ctx context.Context, resourceID string) (domain.Cents, error)

	CreateSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionForUpdate(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, f SessionsFilter) ([]domain.Session, error)
	CloseSession(ctx context.Context, s *domain.Session) error
	CreateMovement(ctx context.Context, m *domain.CashMovement) error
	ListMovements(ctx context.Context, sessionID string) ([]domain.CashMovement, error)
	SumMovements(ctx context.Context, sessionID string) (domain.Cents, error)
	CreateRefund(ctx context.Context, r *domain.Refund) error
	ListSessionRefunds(ctx context.Context, sessionID string) ([]domain.Refund, error)
	SumCashRefunds(ctx context.Context, sessionID string) (domain.Cents, error)
	ListSessionResources(ctx context.Context, sessionID string) ([]domain.Resource, error)
	SumSessionCash(ctx context.Context, sessionID string) (domain.Cents, error)
}

// Store is the ledger persistence boundary. Reads may run outside a
// transaction; every mutating service operation wraps its work in WithinTx
// so partial application is impossible.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
