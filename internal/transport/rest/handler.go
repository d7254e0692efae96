package rest

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/repository"
	"tradeledger/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type LedgerService interface {
	CreateObligation(ctx context.Context, in service.CreateObligationInput) (*domain.Obligation, error)
	CreateResource(ctx context.Context, in service.CreateResourceInput) (*domain.Resource, error)
	GetObligation(ctx context.Context, id string) (*service.ObligationDetail, error)
	GetResource(ctx context.Context, id string) (*service.ResourceDetail, error)
	Reconcile(ctx context.Context, resourceID string, obligationIDs []string) (domain.Cents, error)
	Settle(ctx context.Context, obligationID, resourceID string, amount domain.Cents) (*domain.Allocation, error)
	Detach(ctx context.Context, allocationID string) error
	Void(ctx context.Context, obligationID string) error
}

type SessionService interface {
	Open(ctx context.Context, in service.OpenSessionInput) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context, f repository.SessionsFilter) ([]domain.Session, error)
	RecordMovement(ctx context.Context, in service.MovementInput) (*domain.CashMovement, error)
	RecordRefund(ctx context.Context, in service.RefundInput) (*domain.Refund, error)
	Close(ctx context.Context, in service.CloseSessionInput) (*domain.Session, error)
	Movements(ctx context.Context, sessionID string) ([]domain.CashMovement, error)
	Report(ctx context.Context, sessionID string) (*service.SessionReport, error)
}

type ExportService interface {
	StartSessionReportExport(ctx context.Context, sessionID string, userID int64) (string, error)
	GetExports(ctx context.Context, userID int64) ([]service.ExportStatus, error)
	GetExport(ctx context.Context, exportID string, userID int64) (*service.ExportStatus, error)
}

// SessionNotifier pushes a close event to the cashier's connected clients.
type SessionNotifier interface {
	NotifySessionClosed(ctx context.Context, userID int64, sessionID string, difference float64) error
}

type Handler struct {
	ledger   LedgerService
	sessions SessionService
	exports  ExportService
	notifier SessionNotifier
	filesDir string
}

func NewHandler(ledger LedgerService, sessions SessionService, exports ExportService, notifier SessionNotifier, filesDir string) *Handler {
	return &Handler{
		ledger:   ledger,
		sessions: sessions,
		exports:  exports,
		notifier: notifier,
		filesDir: filesDir,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/obligations", func(r chi.Router) {
		r.Post("/", h.createObligation)
		r.Get("/{id}", h.getObligation)
		r.Post("/{id}/settle", h.settleObligation)
		r.Post("/{id}/void", h.voidObligation)
	})

	r.Route("/resources", func(r chi.Router) {
		r.Post("/", h.createResource)
		r.Get("/{id}", h.getResource)
	})

	r.Post("/reconciliation", h.reconcile)
	r.Delete("/allocations/{id}", h.detachAllocation)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.openSession)
		r.Get("/", h.listSessions)
		r.Get("/{id}", h.getSession)
		r.Post("/{id}/close", h.closeSession)
		r.Get("/{id}/movements", h.listMovements)
		r.Post("/{id}/movements", h.recordMovement)
		r.Post("/{id}/refunds", h.recordRefund)
		r.Get("/{id}/report", h.sessionReport)
		r.Post("/{id}/report/export", h.exportSessionReport)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/{export_id}", h.getExport)
	})

	if h.filesDir != "" {
		r.Get("/files/{file}", h.serveFile)
	}

	return r
}

// serveFile hands out export files from local storage. Saved names carry a
// random prefix; the original filename is restored for the download.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) {
	file := filepath.Base(chi.URLParam(r, "file"))
	path := filepath.Join(h.filesDir, file)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	if idx := strings.IndexByte(file, '_'); idx >= 0 {
		file = file[idx+1:]
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+file+"\"")
	http.ServeFile(w, r, path)
}
