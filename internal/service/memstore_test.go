package service

import (
	"context"
	"sort"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/repository"
)

// memStore is an in-memory repository.Store for service tests. It applies
// the same derived-state rules as the SQL implementation but without
// locking; tests drive it from a single goroutine.
type memStore struct {
	obligations map[string]*domain.Obligation
	resources   map[string]*domain.Resource
	allocations map[string]*domain.Allocation
	sessions    map[string]*domain.Session
	movements   []*domain.CashMovement
	refunds     []*domain.Refund
}

func newMemStore() *memStore {
	return &memStore{
		obligations: map[string]*domain.Obligation{},
		resources:   map[string]*domain.Resource{},
		allocations: map[string]*domain.Allocation{},
		sessions:    map[string]*domain.Session{},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(s)
}

func (s *memStore) CreateObligation(ctx context.Context, o *domain.Obligation) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	cp := *o
	s.obligations[o.ID] = &cp
	return nil
}

func (s *memStore) GetObligation(ctx context.Context, id string) (*domain.Obligation, error) {
	o, ok := s.obligations[id]
	if !ok {
		return nil, domain.NotFoundf("obligation %s not found", id)
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) GetObligationForUpdate(ctx context.Context, id string) (*domain.Obligation, error) {
	return s.GetObligation(ctx, id)
}

func (s *memStore) ListEligibleObligationsForUpdate(ctx context.Context, kind domain.ObligationKind, ids []string) ([]domain.Obligation, error) {
	var out []domain.Obligation
	for _, id := range ids {
		o, ok := s.obligations[id]
		if !ok || o.Kind != kind || !o.Eligible() {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memStore) SetObligationStatus(ctx context.Context, o *domain.Obligation, status domain.ObligationStatus) error {
	stored, ok := s.obligations[o.ID]
	if !ok {
		return domain.NotFoundf("obligation %s not found", o.ID)
	}
	if stored.Version != o.Version {
		return domain.ConcurrencyConflictf("obligation %s was modified concurrently", o.ID)
	}
	stored.Status = status
	stored.Version++
	stored.UpdatedAt = time.Now()
	o.Status = status
	o.Version = stored.Version
	return nil
}

func (s *memStore) CreateResource(ctx context.Context, r *domain.Resource) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	cp := *r
	s.resources[r.ID] = &cp
	return nil
}

func (s *memStore) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	r, ok := s.resources[id]
	if !ok {
		return nil, domain.NotFoundf("resource %s not found", id)
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) GetResourceForUpdate(ctx context.Context, id string) (*domain.Resource, error) {
	return s.GetResource(ctx, id)
}

func (s *memStore) SetResourceStatus(ctx context.Context, r *domain.Resource, status domain.ResourceStatus) error {
	stored, ok := s.resources[r.ID]
	if !ok {
		return domain.NotFoundf("resource %s not found", r.ID)
	}
	if stored.Version != r.Version {
		return domain.ConcurrencyConflictf("resource %s was modified concurrently", r.ID)
	}
	stored.Status = status
	stored.Version++
	stored.UpdatedAt = time.Now()
	r.Status = status
	r.Version = stored.Version
	return nil
}

func (s *memStore) CreateAllocation(ctx context.Context, a *domain.Allocation) error {
	a.CreatedAt = time.Now()
	cp := *a
	s.allocations[a.ID] = &cp
	return nil
}

func (s *memStore) GetAllocation(ctx context.Context, id string) (*domain.Allocation, error) {
	a, ok := s.allocations[id]
	if !ok {
		return nil, domain.NotFoundf("allocation %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) DeleteAllocation(ctx context.Context, id string) error {
	if _, ok := s.allocations[id]; !ok {
		return domain.NotFoundf("allocation %s not found", id)
	}
	delete(s.allocations, id)
	return nil
}

func (s *memStore) DeleteObligationAllocations(ctx context.Context, obligationID string) ([]domain.Allocation, error) {
	var deleted []domain.Allocation
	for id, a := range s.allocations {
		if a.ObligationID == obligationID {
			deleted = append(deleted, *a)
			delete(s.allocations, id)
		}
	}
	return deleted, nil
}

func (s *memStore) ListObligationAllocations(ctx context.Context, obligationID string) ([]domain.Allocation, error) {
	var out []domain.Allocation
	for _, a := range s.allocations {
		if a.ObligationID == obligationID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) ListResourceAllocations(ctx context.Context, resourceID string) ([]domain.Allocation, error) {
	var out []domain.Allocation
	for _, a := range s.allocations {
		if a.ResourceID == resourceID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) SumObligationAllocations(ctx context.Context, obligationID string) (domain.Cents, error) {
	var sum domain.Cents
	for _, a := range s.allocations {
		if a.ObligationID == obligationID {
			sum += a.Amount
		}
	}
	return sum, nil
}

func (s *memStore) SumResourceAllocations(ctx context.Context, resourceID string) (domain.Cents, error) {
	var sum domain.Cents
	for _, a := range s.allocations {
		if a.ResourceID == resourceID {
			sum += a.Amount
		}
	}
	return sum, nil
}

func (s *memStore) CreateSession(ctx context.Context, sess *domain.Session) error {
	sess.OpenedAt = time.Now()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *memStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.NotFoundf("session %s not found", id)
	}
	cp := *sess
	return &cp, nil
}

func (s *memStore) GetSessionForUpdate(ctx context.Context, id string) (*domain.Session, error) {
	return s.GetSession(ctx, id)
}

func (s *memStore) ListSessions(ctx context.Context, f repository.SessionsFilter) ([]domain.Session, error) {
	var out []domain.Session
	for _, sess := range s.sessions {
		if f.CashRegisterID != nil && sess.CashRegisterID != *f.CashRegisterID {
			continue
		}
		if f.Status != nil && sess.Status != *f.Status {
			continue
		}
		if f.OpenedFrom != nil && sess.OpenedAt.Before(*f.OpenedFrom) {
			continue
		}
		if f.OpenedTo != nil && sess.OpenedAt.After(*f.OpenedTo) {
			continue
		}
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return out, nil
}

func (s *memStore) CloseSession(ctx context.Context, sess *domain.Session) error {
	stored, ok := s.sessions[sess.ID]
	if !ok {
		return domain.NotFoundf("session %s not found", sess.ID)
	}
	if stored.Status != domain.SessionOpen {
		return domain.InvalidStatef("session %s is already closed", sess.ID)
	}
	stored.Status = domain.SessionClosed
	stored.Closing = sess.Closing
	stored.Expected = sess.Expected
	stored.Difference = sess.Difference
	stored.ClosedBy = sess.ClosedBy
	stored.ClosedAt = sess.ClosedAt
	sess.Status = domain.SessionClosed
	return nil
}

func (s *memStore) CreateMovement(ctx context.Context, m *domain.CashMovement) error {
	m.CreatedAt = time.Now()
	cp := *m
	s.movements = append(s.movements, &cp)
	return nil
}

func (s *memStore) ListMovements(ctx context.Context, sessionID string) ([]domain.CashMovement, error) {
	var out []domain.CashMovement
	for _, m := range s.movements {
		if m.SessionID == sessionID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memStore) SumMovements(ctx context.Context, sessionID string) (domain.Cents, error) {
	var sum domain.Cents
	for _, m := range s.movements {
		if m.SessionID == sessionID {
			sum += m.Amount
		}
	}
	return sum, nil
}

func (s *memStore) CreateRefund(ctx context.Context, r *domain.Refund) error {
	r.CreatedAt = time.Now()
	cp := *r
	s.refunds = append(s.refunds, &cp)
	return nil
}

func (s *memStore) ListSessionRefunds(ctx context.Context, sessionID string) ([]domain.Refund, error) {
	var out []domain.Refund
	for _, r := range s.refunds {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) SumCashRefunds(ctx context.Context, sessionID string) (domain.Cents, error) {
	var sum domain.Cents
	for _, r := range s.refunds {
		if r.SessionID == sessionID && r.Method == domain.MethodCash {
			sum += r.Amount
		}
	}
	return sum, nil
}

func (s *memStore) ListSessionResources(ctx context.Context, sessionID string) ([]domain.Resource, error) {
	var out []domain.Resource
	for _, r := range s.resources {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) SumSessionCash(ctx context.Context, sessionID string) (domain.Cents, error) {
	var sum domain.Cents
	for _, r := range s.resources {
		if r.SessionID == sessionID && r.Method == domain.MethodCash {
			sum += r.Total
		}
	}
	return sum, nil
}
