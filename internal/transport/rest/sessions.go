package rest

import (
	"net/http"

	"tradeledger/internal/domain"
	"tradeledger/internal/repository"
	"tradeledger/internal/service"
	"tradeledger/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	req, opening, err := ValidateOpenSessionRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	sess, err := h.sessions.Open(r.Context(), service.OpenSessionInput{
		CashRegisterID: req.CashRegisterID,
		Opening:        opening,
		OpenedBy:       userID,
	})
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	Success(w, "session opened", newSessionView(sess))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		ErrorDomain(w, err)
		return
	}
	Success(w, "", newSessionView(sess))
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseSessionsFilter(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	filter := repository.SessionsFilter{
		CashRegisterID: q.CashRegisterID,
		OpenedFrom:     q.OpenedFrom,
		OpenedTo:       q.OpenedTo,
	}
	if q.Status != nil {
		status := domain.SessionStatus(*q.Status)
		filter.Status = &status
	}

	sessions, err := h.sessions.List(r.Context(), filter)
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, newSessionView(&sessions[i]))
	}
	Success(w, "", views)
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	req, counted, err := ValidateCloseSessionRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	sess, err := h.sessions.Close(r.Context(), service.CloseSessionInput{
		SessionID:        chi.URLParam(r, "id"),
		Counted:          counted,
		CreateAdjustment: req.CreateAdjustment,
		ClosedBy:         userID,
	})
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	if h.notifier != nil {
		_ = h.notifier.NotifySessionClosed(r.Context(), userID, sess.ID, sess.Difference.Float64())
	}

	Success(w, "session closed", newSessionView(sess))
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.sessions.Movements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	views := make([]movementView, 0, len(movements))
	for i := range movements {
		views = append(views, newMovementView(&movements[i]))
	}
	Success(w, "", views)
}

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	req, amount, err := ValidateMovementRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	m, err := h.sessions.RecordMovement(r.Context(), service.MovementInput{
		SessionID: chi.URLParam(r, "id"),
		Type:      domain.MovementType(req.Type),
		Amount:    amount,
		Reason:    req.Reason,
		UserID:    userID,
	})
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	Success(w, "movement recorded", newMovementView(m))
}

func (h *Handler) recordRefund(w http.ResponseWriter, r *http.Request) {
	req, amount, err := ValidateRefundRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	refund, err := h.sessions.RecordRefund(r.Context(), service.RefundInput{
		SessionID: chi.URLParam(r, "id"),
		Method:    domain.PaymentMethod(req.Method),
		Amount:    amount,
		Reason:    req.Reason,
	})
	if err != nil {
		ErrorDomain(w, err)
		return
	}

	Success(w, "refund recorded", newRefundView(refund))
}

func (h *Handler) sessionReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.sessions.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		ErrorDomain(w, err)
		return
	}
	Success(w, "", newSessionReportView(report))
}
