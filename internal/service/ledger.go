package service

import (
	"context"
	"log"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/repository"

	"github.com/google/uuid"
)

// LedgerService owns every mutation of obligations, resources and
// allocations. Each entry point runs as one transaction: either the whole
// operation commits or nothing does.
type LedgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) *LedgerService {
	return &LedgerService{store: store}
}

type CreateObligationInput struct {
	Kind           domain.ObligationKind
	CounterpartyID string
	Total          domain.Cents
	DueDate        time.Time
	Draft          bool
}

type CreateResourceInput struct {
	Kind           domain.ResourceKind
	CounterpartyID string
	Total          domain.Cents
	Method         domain.PaymentMethod
	SessionID      string
}

// ObligationDetail is an obligation together with its derived amounts and
// the allocations behind them.
type ObligationDetail struct {
	Obligation  domain.Obligation
	Allocated   domain.Cents
	Remaining   domain.Cents
	Allocations []domain.Allocation
}

type ResourceDetail struct {
	Resource    domain.Resource
	Allocated   domain.Cents
	Remaining   domain.Cents
	Allocations []domain.Allocation
}

func (s *LedgerService) CreateObligation(ctx context.Context, in CreateObligationInput) (*domain.Obligation, error) {
	if !in.Kind.Valid() {
		return nil, domain.InvalidStatef("unknown obligation kind %q", in.Kind)
	}
	if in.Total <= 0 {
		return nil, domain.InvalidAmountf("obligation total must be positive, got %s", in.Total)
	}

	o := &domain.Obligation{
		ID:             uuid.NewString(),
		Kind:           in.Kind,
		CounterpartyID: in.CounterpartyID,
		Total:          in.Total,
		DueDate:        in.DueDate,
		Status:         domain.ObligationUnpaid,
	}
	if in.Draft {
		o.Status = domain.ObligationDraft
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.CreateObligation(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *LedgerService) CreateResource(ctx context.Context, in CreateResourceInput) (*domain.Resource, error) {
	if !in.Kind.Valid() {
		return nil, domain.InvalidStatef("unknown resource kind %q", in.Kind)
	}
	if in.Total <= 0 {
		return nil, domain.InvalidAmountf("resource total must be positive, got %s", in.Total)
	}

	r := &domain.Resource{
		ID:             uuid.NewString(),
		Kind:           in.Kind,
		CounterpartyID: in.CounterpartyID,
		Total:          in.Total,
		Method:         in.Method,
		SessionID:      in.SessionID,
		Status:         domain.ResourceAvailable,
	}
	if r.Method == "" {
		r.Method = domain.MethodOther
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if r.SessionID != "" {
			sess, err := tx.GetSession(ctx, r.SessionID)
			if err != nil {
				return err
			}
			if sess.Status != domain.SessionOpen {
				return domain.InvalidStatef("session %s is closed", sess.ID)
			}
		}
		return tx.CreateResource(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *LedgerService) GetObligation(ctx context.Context, id string) (*ObligationDetail, error) {
	o, err := s.store.GetObligation(ctx, id)
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.ListObligationAllocations(ctx, id)
	if err != nil {
		return nil, err
	}
	var allocated domain.Cents
	for _, a := range allocs {
		allocated += a.Amount
	}
	return &ObligationDetail{
		Obligation:  *o,
		Allocated:   allocated,
		Remaining:   o.Total - allocated,
		Allocations: allocs,
	}, nil
}

func (s *LedgerService) GetResource(ctx context.Context, id string) (*ResourceDetail, error) {
	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.ListResourceAllocations(ctx, id)
	if err != nil {
		return nil, err
	}
	var allocated domain.Cents
	for _, a := range allocs {
		allocated += a.Amount
	}
	return &ResourceDetail{
		Resource:    *r,
		Allocated:   allocated,
		Remaining:   r.Total - allocated,
		Allocations: allocs,
	}, nil
}

// Reconcile runs the bulk allocator: it spreads the resource's remaining
// capacity over the requested obligations, oldest due date first, and
// returns the total amount allocated. A run with no eligible obligations
// allocates nothing and returns zero; a resource with no capacity left is
// an error so callers never mistake a no-op for success.
func (s *LedgerService) Reconcile(ctx context.Context, resourceID string, obligationIDs []string) (domain.Cents, error) {
	var total domain.Cents

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		r, err := tx.GetResourceForUpdate(ctx, resourceID)
		if err != nil {
			return err
		}

		allocated, err := tx.SumResourceAllocations(ctx, r.ID)
		if err != nil {
			return err
		}
		capacity := r.Total - allocated
		if capacity <= 0 {
			return domain.InsufficientCapacityf("resource %s has no remaining capacity", r.ID)
		}

		obligations, err := tx.ListEligibleObligationsForUpdate(ctx, r.Kind.ObligationKind(), obligationIDs)
		if err != nil {
			return err
		}

		for i := range obligations {
			if capacity <= 0 {
				break
			}
			o := &obligations[i]

			oAllocated, err := tx.SumObligationAllocations(ctx, o.ID)
			if err != nil {
				return err
			}
			due := o.Total - oAllocated
			amount := min(capacity, due)
			if amount <= 0 {
				continue
			}

			a := &domain.Allocation{
				ID:           uuid.NewString(),
				ResourceID:   r.ID,
				ResourceKind: r.Kind,
				ObligationID: o.ID,
				Amount:       amount,
			}
			if err := tx.CreateAllocation(ctx, a); err != nil {
				return err
			}
			capacity -= amount
			total += amount

			if err := tx.SetObligationStatus(ctx, o, o.StatusFor(oAllocated+amount)); err != nil {
				return err
			}
		}

		sum, err := tx.SumResourceAllocations(ctx, r.ID)
		if err != nil {
			return err
		}
		return tx.SetResourceStatus(ctx, r, r.StatusFor(sum))
	})
	if err != nil {
		return 0, err
	}

	log.Printf("reconciled resource %s: allocated %s over %d obligation(s)", resourceID, total, len(obligationIDs))
	return total, nil
}

// Settle allocates a caller-chosen amount from one resource to one
// obligation. The amount must fit inside both sides' remaining capacity.
func (s *LedgerService) Settle(ctx context.Context, obligationID, resourceID string, amount domain.Cents) (*domain.Allocation, error) {
	if amount <= 0 {
		return nil, domain.InvalidAmountf("settle amount must be positive, got %s", amount)
	}

	a := &domain.Allocation{
		ID:           uuid.NewString(),
		ObligationID: obligationID,
		ResourceID:   resourceID,
		Amount:       amount,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.GetObligationForUpdate(ctx, obligationID)
		if err != nil {
			return err
		}
		if !o.Eligible() {
			return domain.InvalidStatef("obligation %s is %s and cannot receive allocations", o.ID, o.Status)
		}

		r, err := tx.GetResourceForUpdate(ctx, resourceID)
		if err != nil {
			return err
		}
		if r.Kind.ObligationKind() != o.Kind {
			return domain.InvalidStatef("resource kind %s cannot settle obligation kind %s", r.Kind, o.Kind)
		}
		a.ResourceKind = r.Kind

		oAllocated, err := tx.SumObligationAllocations(ctx, o.ID)
		if err != nil {
			return err
		}
		if amount > o.Total-oAllocated {
			return domain.ExceedsObligationf("amount %s exceeds obligation remaining due %s", amount, o.Total-oAllocated)
		}

		rAllocated, err := tx.SumResourceAllocations(ctx, r.ID)
		if err != nil {
			return err
		}
		if amount > r.Total-rAllocated {
			return domain.InsufficientCapacityf("amount %s exceeds resource remaining capacity %s", amount, r.Total-rAllocated)
		}

		if err := tx.CreateAllocation(ctx, a); err != nil {
			return err
		}
		if err := tx.SetObligationStatus(ctx, o, o.StatusFor(oAllocated+amount)); err != nil {
			return err
		}
		return tx.SetResourceStatus(ctx, r, r.StatusFor(rAllocated+amount))
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Detach deletes one allocation and recomputes both sides from the full
// remaining allocation set. A VOID obligation keeps its status; its
// resource side is still released.
func (s *LedgerService) Detach(ctx context.Context, allocationID string) error {
	return s.store.WithinTx(ctx, func(tx repository.Tx) error {
		a, err := tx.GetAllocation(ctx, allocationID)
		if err != nil {
			return err
		}

		o, err := tx.GetObligationForUpdate(ctx, a.ObligationID)
		if err != nil {
			return err
		}
		r, err := tx.GetResourceForUpdate(ctx, a.ResourceID)
		if err != nil {
			return err
		}

		if err := tx.DeleteAllocation(ctx, a.ID); err != nil {
			return err
		}

		if o.Status != domain.ObligationVoid {
			sum, err := tx.SumObligationAllocations(ctx, o.ID)
			if err != nil {
				return err
			}
			if err := tx.SetObligationStatus(ctx, o, o.StatusFor(sum)); err != nil {
				return err
			}
		}

		sum, err := tx.SumResourceAllocations(ctx, r.ID)
		if err != nil {
			return err
		}
		return tx.SetResourceStatus(ctx, r, r.StatusFor(sum))
	})
}

// Void marks an obligation VOID and releases every resource allocated to
// it. Released resources are recomputed from their remaining allocations,
// so a fully released payment becomes AVAILABLE again.
func (s *LedgerService) Void(ctx context.Context, obligationID string) error {
	return s.store.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.GetObligationForUpdate(ctx, obligationID)
		if err != nil {
			return err
		}
		if o.Status == domain.ObligationVoid {
			return domain.InvalidStatef("obligation %s is already void", o.ID)
		}

		deleted, err := tx.DeleteObligationAllocations(ctx, o.ID)
		if err != nil {
			return err
		}

		if err := tx.SetObligationStatus(ctx, o, domain.ObligationVoid); err != nil {
			return err
		}

		seen := map[string]bool{}
		for _, a := range deleted {
			if seen[a.ResourceID] {
				continue
			}
			seen[a.ResourceID] = true

			r, err := tx.GetResourceForUpdate(ctx, a.ResourceID)
			if err != nil {
				return err
			}
			sum, err := tx.SumResourceAllocations(ctx, r.ID)
			if err != nil {
				return err
			}
			if err := tx.SetResourceStatus(ctx, r, r.StatusFor(sum)); err != nil {
				return err
			}
		}
		return nil
	})
}
