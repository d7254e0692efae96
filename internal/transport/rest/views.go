package rest

import (
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/service"
)

// View structs shape ledger entities for JSON clients: cents become
// major-unit floats, timestamps become RFC 3339 strings.

type obligationView struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	CounterpartyID string  `json:"counterparty_id"`
	Total          float64 `json:"total"`
	DueDate        string  `json:"due_date"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

func newObligationView(o *domain.Obligation) obligationView {
	return obligationView{
		ID:             o.ID,
		Kind:           string(o.Kind),
		CounterpartyID: o.CounterpartyID,
		Total:          o.Total.Float64(),
		DueDate:        o.DueDate.Format("2006-01-02"),
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
}

type obligationDetailView struct {
	obligationView
	Allocated   float64          `json:"allocated"`
	Remaining   float64          `json:"remaining_due"`
	Allocations []allocationView `json:"allocations"`
}

func newObligationDetailView(d *service.ObligationDetail) obligationDetailView {
	return obligationDetailView{
		obligationView: newObligationView(&d.Obligation),
		Allocated:      d.Allocated.Float64(),
		Remaining:      d.Remaining.Float64(),
		Allocations:    newAllocationViews(d.Allocations),
	}
}

type resourceView struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	CounterpartyID string  `json:"counterparty_id"`
	Total          float64 `json:"total"`
	Method         string  `json:"method"`
	SessionID      string  `json:"session_id,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

func newResourceView(r *domain.Resource) resourceView {
	return resourceView{
		ID:             r.ID,
		Kind:           string(r.Kind),
		CounterpartyID: r.CounterpartyID,
		Total:          r.Total.Float64(),
		Method:         string(r.Method),
		SessionID:      r.SessionID,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
}

type resourceDetailView struct {
	resourceView
	Allocated   float64          `json:"allocated"`
	Remaining   float64          `json:"remaining_amount"`
	Allocations []allocationView `json:"allocations"`
}

func newResourceDetailView(d *service.ResourceDetail) resourceDetailView {
	return resourceDetailView{
		resourceView: newResourceView(&d.Resource),
		Allocated:    d.Allocated.Float64(),
		Remaining:    d.Remaining.Float64(),
		Allocations:  newAllocationViews(d.Allocations),
	}
}

type allocationView struct {
	ID           string  `json:"id"`
	ResourceID   string  `json:"resource_id"`
	ObligationID string  `json:"obligation_id"`
	Amount       float64 `json:"amount"`
	CreatedAt    string  `json:"created_at"`
}

func newAllocationViews(allocs []domain.Allocation) []allocationView {
	out := make([]allocationView, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, allocationView{
			ID:           a.ID,
			ResourceID:   a.ResourceID,
			ObligationID: a.ObligationID,
			Amount:       a.Amount.Float64(),
			CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

type sessionView struct {
	ID             string   `json:"id"`
	CashRegisterID string   `json:"cash_register_id"`
	Opening        float64  `json:"opening_balance"`
	Status         string   `json:"status"`
	OpenedBy       int64    `json:"opened_by"`
	OpenedAt       string   `json:"opened_at"`
	ClosedBy       *int64   `json:"closed_by,omitempty"`
	ClosedAt       *string  `json:"closed_at,omitempty"`
	Closing        *float64 `json:"closing_balance,omitempty"`
	Expected       *float64 `json:"expected_balance,omitempty"`
	Difference     *float64 `json:"difference,omitempty"`
}

func newSessionView(s *domain.Session) sessionView {
	v := sessionView{
		ID:             s.ID,
		CashRegisterID: s.CashRegisterID,
		Opening:        s.Opening.Float64(),
		Status:         string(s.Status),
		OpenedBy:       s.OpenedBy,
		OpenedAt:       s.OpenedAt.Format(time.RFC3339),
		ClosedBy:       s.ClosedBy,
	}
	if s.Status == domain.SessionClosed {
		closing := s.Closing.Float64()
		expected := s.Expected.Float64()
		difference := s.Difference.Float64()
		v.Closing = &closing
		v.Expected = &expected
		v.Difference = &difference
	}
	if s.ClosedAt != nil {
		closedAt := s.ClosedAt.Format(time.RFC3339)
		v.ClosedAt = &closedAt
	}
	return v
}

type movementView struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason,omitempty"`
	UserID    int64   `json:"user_id"`
	CreatedAt string  `json:"created_at"`
}

func newMovementView(m *domain.CashMovement) movementView {
	return movementView{
		ID:        m.ID,
		SessionID: m.SessionID,
		Type:      string(m.Type),
		Amount:    m.Amount.Float64(),
		Reason:    m.Reason,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

type refundView struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func newRefundView(r *domain.Refund) refundView {
	return refundView{
		ID:        r.ID,
		SessionID: r.SessionID,
		Method:    string(r.Method),
		Amount:    r.Amount.Float64(),
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

type sessionReportView struct {
	Session         sessionView        `json:"session"`
	SalesByMethod   map[string]float64 `json:"sales_by_method"`
	MovementsByType map[string]float64 `json:"movements_by_type"`
	TotalCashIn     float64            `json:"total_cash_in"`
	TotalMovements  float64            `json:"total_movements"`
	TotalCashOut    float64            `json:"total_cash_out"`
	Expected        float64            `json:"expected_balance"`
	Movements       []movementView     `json:"movements"`
	Refunds         []refundView       `json:"refunds"`
}

func newSessionReportView(rep *service.SessionReport) sessionReportView {
	v := sessionReportView{
		Session:         newSessionView(&rep.Session),
		SalesByMethod:   map[string]float64{},
		MovementsByType: map[string]float64{},
		TotalCashIn:     rep.TotalCashIn.Float64(),
		TotalMovements:  rep.TotalMovements.Float64(),
		TotalCashOut:    rep.TotalCashOut.Float64(),
		Expected:        rep.Expected.Float64(),
		Movements:       make([]movementView, 0, len(rep.Movements)),
		Refunds:         make([]refundView, 0, len(rep.Refunds)),
	}
	for m, c := range rep.SalesByMethod {
		v.SalesByMethod[string(m)] = c.Float64()
	}
	for t, c := range rep.MovementsByType {
		v.MovementsByType[string(t)] = c.Float64()
	}
	for i := range rep.Movements {
		v.Movements = append(v.Movements, newMovementView(&rep.Movements[i]))
	}
	for i := range rep.Refunds {
		v.Refunds = append(v.Refunds, newRefundView(&rep.Refunds[i]))
	}
	return v
}
