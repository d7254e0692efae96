package rest

import (
	"net/http"

	"tradeledger/internal/domain"
	"tradeledger/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createObligation(w http.ResponseWriter, r *http.Request) {
	req, due, total, err := ValidateCreateObligationRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	o, err := h.ledger.CreateObligation(r.Context(), service.CreateObligationInput{
		Kind:           domain.ObligationKind(req.Kind),
		CounterpartyID: req.CounterpartyID,
		Total:          total,
		DueDate:        due,
		Draft:          req.Draft,
	})
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	Success(w, "obligation created", newObligationView(o))
}

func (h *Handler) getObligation(w http.ResponseWriter, r *http.Request) {
	detail, err := h.ledger.GetObligation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		ErrorDomain(w, err)
		return
	}
	Success(w, "", newObligationDetailView(detail))
}

func (h *Handler) settleObligation(w http.ResponseWriter, r *http.Request) {
	obligationID := chi.URLParam(r, "id")
	resourceID, amount, err := ValidateSettleRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	a, err := h.ledger.Settle(r.Context(), obligationID, resourceID, amount)
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	Success(w, "obligation settled", map[string]interface{}{
		"allocation_id": a.ID,
		"amount":        a.Amount.Float64(),
	})
}

func (h *Handler) voidObligation(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Void(r.Context(), chi.URLParam(r, "id")); err != nil {
		ErrorDomain(w, err)
		return
	}
	Success(w, "obligation voided", nil)
}
