package rest

import (
	"net/http"

	"tradeledger/internal/domain"
	"tradeledger/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createResource(w http.ResponseWriter, r *http.Request) {
	req, total, err := ValidateCreateResourceRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	res, err := h.ledger.CreateResource(r.Context(), service.CreateResourceInput{
		Kind:           domain.ResourceKind(req.Kind),
		CounterpartyID: req.CounterpartyID,
		Total:          total,
		Method:         domain.PaymentMethod(req.Method),
		SessionID:      req.SessionID,
	})
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	Success(w, "resource created", newResourceView(res))
}

func (h *Handler) getResource(w http.ResponseWriter, r *http.Request) {
	detail, err := h.ledger.GetResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		ErrorDomain(w, err)
		return
	}
	Success(w, "", newResourceDetailView(detail))
}

// reconcile runs the bulk allocator against one resource and a set of
// obligations.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateReconcileRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	total, err := h.ledger.Reconcile(r.Context(), req.ResourceID, req.ObligationIDs)
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	Success(w, "reconciliation complete", map[string]interface{}{
		"resource_id":     req.ResourceID,
		"total_allocated": total.Float64(),
	})
}

func (h *Handler) detachAllocation(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Detach(r.Context(), chi.URLParam(r, "id")); err != nil {
		ErrorDomain(w, err)
		return
	}
	Success(w, "allocation detached", nil)
}
