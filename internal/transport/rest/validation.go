package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"tradeledger/internal/domain"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		return &ValidationError{Message: "invalid JSON"}
	}
	return nil
}

// amountToCents converts a JSON money value to cents, rejecting anything
// that is not a positive finite number.
func amountToCents(field string, v float64) (domain.Cents, error) {
	c, err := domain.CentsFromFloat(v)
	if err != nil {
		return 0, &ValidationError{Field: field, Message: field + " must be a finite number"}
	}
	if c <= 0 {
		return 0, &ValidationError{Field: field, Message: field + " must be positive"}
	}
	return c, nil
}

type CreateObligationRequest struct {
	Kind           string  `json:"kind"`
	CounterpartyID string  `json:"counterparty_id"`
	Total          float64 `json:"total"`
	DueDate        string  `json:"due_date"`
	Draft          bool    `json:"draft"`
}

func ValidateCreateObligationRequest(r *http.Request) (*CreateObligationRequest, time.Time, domain.Cents, error) {
	var req CreateObligationRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, time.Time{}, 0, err
	}
	if req.Kind == "" {
		return nil, time.Time{}, 0, &ValidationError{Field: "kind", Message: "kind is required"}
	}
	if req.CounterpartyID == "" {
		return nil, time.Time{}, 0, &ValidationError{Field: "counterparty_id", Message: "counterparty_id is required"}
	}
	total, err := amountToCents("total", req.Total)
	if err != nil {
		return nil, time.Time{}, 0, err
	}
	due, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, time.Time{}, 0, &ValidationError{Field: "due_date", Message: "due_date must be YYYY-MM-DD"}
	}
	return &req, due, total, nil
}

type CreateResourceRequest struct {
	Kind           string  `json:"kind"`
	CounterpartyID string  `json:"counterparty_id"`
	Total          float64 `json:"total"`
	Method         string  `json:"method"`
	SessionID      string  `json:"session_id"`
}

func ValidateCreateResourceRequest(r *http.Request) (*CreateResourceRequest, domain.Cents, error) {
	var req CreateResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, 0, err
	}
	if req.Kind == "" {
		return nil, 0, &ValidationError{Field: "kind", Message: "kind is required"}
	}
	if req.CounterpartyID == "" {
		return nil, 0, &ValidationError{Field: "counterparty_id", Message: "counterparty_id is required"}
	}
	total, err := amountToCents("total", req.Total)
	if err != nil {
		return nil, 0, err
	}
	return &req, total, nil
}

type SettleRequest struct {
	ResourceID string  `json:"resource_id"`
	Amount     float64 `json:"amount"`
}

func ValidateSettleRequest(r *http.Request) (string, domain.Cents, error) {
	var req SettleRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", 0, err
	}
	if req.ResourceID == "" {
		return "", 0, &ValidationError{Field: "resource_id", Message: "resource_id is required"}
	}
	amount, err := amountToCents("amount", req.Amount)
	if err != nil {
		return "", 0, err
	}
	return req.ResourceID, amount, nil
}

type ReconcileRequest struct {
	ResourceID    string   `json:"resource_id"`
	ObligationIDs []string `json:"obligation_ids"`
}

func ValidateReconcileRequest(r *http.Request) (*ReconcileRequest, error) {
	var req ReconcileRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if req.ResourceID == "" {
		return nil, &ValidationError{Field: "resource_id", Message: "resource_id is required"}
	}
	if len(req.ObligationIDs) == 0 {
		return nil, &ValidationError{Field: "obligation_ids", Message: "obligation_ids is required and must be an array"}
	}
	return &req, nil
}

type OpenSessionRequest struct {
	CashRegisterID string  `json:"cash_register_id"`
	Opening        float64 `json:"opening_balance"`
}

func ValidateOpenSessionRequest(r *http.Request) (*OpenSessionRequest, domain.Cents, error) {
	var req OpenSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, 0, err
	}
	if req.CashRegisterID == "" {
		return nil, 0, &ValidationError{Field: "cash_register_id", Message: "cash_register_id is required"}
	}
	opening, err := domain.CentsFromFloat(req.Opening)
	if err != nil {
		return nil, 0, &ValidationError{Field: "opening_balance", Message: "opening_balance must be a finite number"}
	}
	if opening < 0 {
		return nil, 0, &ValidationError{Field: "opening_balance", Message: "opening_balance cannot be negative"}
	}
	return &req, opening, nil
}

type MovementRequest struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func ValidateMovementRequest(r *http.Request) (*MovementRequest, domain.Cents, error) {
	var req MovementRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, 0, err
	}
	if req.Type == "" {
		return nil, 0, &ValidationError{Field: "type", Message: "type is required"}
	}
	amount, err := amountToCents("amount", req.Amount)
	if err != nil {
		return nil, 0, err
	}
	return &req, amount, nil
}

type RefundRequest struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func ValidateRefundRequest(r *http.Request) (*RefundRequest, domain.Cents, error) {
	var req RefundRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, 0, err
	}
	amount, err := amountToCents("amount", req.Amount)
	if err != nil {
		return nil, 0, err
	}
	return &req, amount, nil
}

type CloseSessionRequest struct {
	Counted          float64 `json:"counted_balance"`
	CreateAdjustment bool    `json:"create_adjustment"`
}

func ValidateCloseSessionRequest(r *http.Request) (*CloseSessionRequest, domain.Cents, error) {
	var req CloseSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, 0, err
	}
	counted, err := domain.CentsFromFloat(req.Counted)
	if err != nil {
		return nil, 0, &ValidationError{Field: "counted_balance", Message: "counted_balance must be a finite number"}
	}
	if counted < 0 {
		return nil, 0, &ValidationError{Field: "counted_balance", Message: "counted_balance cannot be negative"}
	}
	return &req, counted, nil
}

// ParseSessionsFilter reads list filters from query parameters.
func ParseSessionsFilter(r *http.Request) (SessionsQuery, error) {
	q := SessionsQuery{}
	if v := r.URL.Query().Get("cash_register_id"); v != "" {
		q.CashRegisterID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		q.Status = &v
	}
	if v := r.URL.Query().Get("opened_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, &ValidationError{Field: "opened_from", Message: "opened_from must be YYYY-MM-DD"}
		}
		q.OpenedFrom = &t
	}
	if v := r.URL.Query().Get("opened_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, &ValidationError{Field: "opened_to", Message: "opened_to must be YYYY-MM-DD"}
		}
		q.OpenedTo = &t
	}
	return q, nil
}

type SessionsQuery struct {
	CashRegisterID *string
	Status         *string
	OpenedFrom     *time.Time
	OpenedTo       *time.Time
}
