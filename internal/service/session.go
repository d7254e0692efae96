package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tradeledger/internal/clients"
	"tradeledger/internal/domain"
	"tradeledger/internal/repository"

	"github.com/google/uuid"
)

const reportCacheTTL = 5 * time.Minute

// SessionService manages cash register sessions: open, accumulate
// movements and refunds, close with reconciliation against the counted
// balance. Reports are cached in redis when available and invalidated on
// every mutation.
type SessionService struct {
	store repository.Store
	redis *clients.RedisClient
}

func NewSessionService(store repository.Store, redis *clients.RedisClient) *SessionService {
	return &SessionService{store: store, redis: redis}
}

type OpenSessionInput struct {
	CashRegisterID string
	Opening        domain.Cents
	OpenedBy       int64
}

type MovementInput struct {
	SessionID string
	Type      domain.MovementType
	Amount    domain.Cents
	Reason    string
	UserID    int64
}

type RefundInput struct {
	SessionID string
	Method    domain.PaymentMethod
	Amount    domain.Cents
	Reason    string
}

type CloseSessionInput struct {
	SessionID        string
	Counted          domain.Cents
	CreateAdjustment bool
	ClosedBy         int64
}

// SessionReport is the closed-session view: frozen balances plus
// per-method and per-type breakdowns. For an OPEN session the expected
// balance is computed live instead.
type SessionReport struct {
	Session         domain.Session                     `json:"session"`
	SalesByMethod   map[domain.PaymentMethod]domain.Cents `json:"sales_by_method"`
	MovementsByType map[domain.MovementType]domain.Cents  `json:"movements_by_type"`
	TotalCashIn     domain.Cents                       `json:"total_cash_in"`
	TotalMovements  domain.Cents                       `json:"total_movements"`
	TotalCashOut    domain.Cents                       `json:"total_cash_out"`
	Expected        domain.Cents                       `json:"expected"`
	Movements       []domain.CashMovement              `json:"movements"`
	Refunds         []domain.Refund                    `json:"refunds"`
}

func (s *SessionService) Open(ctx context.Context, in OpenSessionInput) (*domain.Session, error) {
	if in.Opening < 0 {
		return nil, domain.InvalidAmountf("opening balance cannot be negative, got %s", in.Opening)
	}
	if in.CashRegisterID == "" {
		return nil, domain.InvalidStatef("cash register id is required")
	}

	sess := &domain.Session{
		ID:             uuid.NewString(),
		CashRegisterID: in.CashRegisterID,
		Opening:        in.Opening,
		Status:         domain.SessionOpen,
		OpenedBy:       in.OpenedBy,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		open := domain.SessionOpen
		existing, err := tx.ListSessions(ctx, repository.SessionsFilter{
			CashRegisterID: &in.CashRegisterID,
			Status:         &open,
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return domain.InvalidStatef("cash register %s already has an open session", in.CashRegisterID)
		}
		return tx.CreateSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.GetSession(ctx, id)
}

func (s *SessionService) List(ctx context.Context, f repository.SessionsFilter) ([]domain.Session, error) {
	return s.store.ListSessions(ctx, f)
}

// RecordMovement stores a cash movement against an open session. Callers
// pass positive amounts; the stored amount carries the sign of the
// movement type so session sums are a plain SUM. ADJUSTMENT movements are
// created only by Close.
func (s *SessionService) RecordMovement(ctx context.Context, in MovementInput) (*domain.CashMovement, error) {
	if !in.Type.Valid() || in.Type == domain.MovementAdjustment {
		return nil, domain.InvalidStatef("movement type %q is not accepted here", in.Type)
	}
	if in.Amount <= 0 {
		return nil, domain.InvalidAmountf("movement amount must be positive, got %s", in.Amount)
	}

	amount := in.Amount
	if in.Type != domain.MovementPayIn {
		amount = -amount
	}

	m := &domain.CashMovement{
		ID:        uuid.NewString(),
		SessionID: in.SessionID,
		Type:      in.Type,
		Amount:    amount,
		Reason:    in.Reason,
		UserID:    in.UserID,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		sess, err := tx.GetSessionForUpdate(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if sess.Status != domain.SessionOpen {
			return domain.InvalidStatef("session %s is closed", sess.ID)
		}
		return tx.CreateMovement(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.dropReportCache(ctx, in.SessionID)
	return m, nil
}

func (s *SessionService) RecordRefund(ctx context.Context, in RefundInput) (*domain.Refund, error) {
	if in.Amount <= 0 {
		return nil, domain.InvalidAmountf("refund amount must be positive, got %s", in.Amount)
	}

	r := &domain.Refund{
		ID:        uuid.NewString(),
		SessionID: in.SessionID,
		Method:    in.Method,
		Amount:    in.Amount,
		Reason:    in.Reason,
	}
	if r.Method == "" {
		r.Method = domain.MethodCash
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		sess, err := tx.GetSessionForUpdate(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if sess.Status != domain.SessionOpen {
			return domain.InvalidStatef("session %s is closed", sess.ID)
		}
		return tx.CreateRefund(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.dropReportCache(ctx, in.SessionID)
	return r, nil
}

// Close reconciles the session: expected = opening + cash sales +
// movements - cash refunds, difference = counted - expected. When the
// caller opts in and the difference is non-zero, one ADJUSTMENT movement
// of the opposite sign is recorded so the drawer starts the next session
// balanced.
func (s *SessionService) Close(ctx context.Context, in CloseSessionInput) (*domain.Session, error) {
	if in.Counted < 0 {
		return nil, domain.InvalidAmountf("counted balance cannot be negative, got %s", in.Counted)
	}

	var closed *domain.Session
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		sess, err := tx.GetSessionForUpdate(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if sess.Status != domain.SessionOpen {
			return domain.InvalidStatef("session %s is already closed", sess.ID)
		}

		cashIn, err := tx.SumSessionCash(ctx, sess.ID)
		if err != nil {
			return err
		}
		movements, err := tx.SumMovements(ctx, sess.ID)
		if err != nil {
			return err
		}
		cashOut, err := tx.SumCashRefunds(ctx, sess.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		sess.Expected = sess.Opening + cashIn + movements - cashOut
		sess.Closing = in.Counted
		sess.Difference = in.Counted - sess.Expected
		sess.ClosedBy = &in.ClosedBy
		sess.ClosedAt = &now

		if err := tx.CloseSession(ctx, sess); err != nil {
			return err
		}

		if in.CreateAdjustment && sess.Difference != 0 {
			adj := &domain.CashMovement{
				ID:        uuid.NewString(),
				SessionID: sess.ID,
				Type:      domain.MovementAdjustment,
				Amount:    -sess.Difference,
				Reason:    "session close adjustment",
				UserID:    in.ClosedBy,
			}
			if err := tx.CreateMovement(ctx, adj); err != nil {
				return err
			}
		}

		closed = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dropReportCache(ctx, in.SessionID)
	log.Printf("closed session %s: expected=%s counted=%s difference=%s",
		closed.ID, closed.Expected, closed.Closing, closed.Difference)
	return closed, nil
}

func (s *SessionService) Movements(ctx context.Context, sessionID string) ([]domain.CashMovement, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx, sessionID)
}

// Report aggregates the session's resources, movements and refunds. The
// result is cached until the next mutation against the session.
func (s *SessionService) Report(ctx context.Context, sessionID string) (*SessionReport, error) {
	if cached := s.cachedReport(ctx, sessionID); cached != nil {
		return cached, nil
	}

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resources, err := s.store.ListSessionResources(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	movements, err := s.store.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	refunds, err := s.store.ListSessionRefunds(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := &SessionReport{
		Session:         *sess,
		SalesByMethod:   map[domain.PaymentMethod]domain.Cents{},
		MovementsByType: map[domain.MovementType]domain.Cents{},
		Movements:       movements,
		Refunds:         refunds,
	}

	for _, r := range resources {
		report.SalesByMethod[r.Method] += r.Total
		if r.Method == domain.MethodCash {
			report.TotalCashIn += r.Total
		}
	}
	for _, m := range movements {
		report.MovementsByType[m.Type] += m.Amount
		report.TotalMovements += m.Amount
	}
	for _, r := range refunds {
		if r.Method == domain.MethodCash {
			report.TotalCashOut += r.Amount
		}
	}

	if sess.Status == domain.SessionClosed {
		report.Expected = sess.Expected
	} else {
		report.Expected = sess.Opening + report.TotalCashIn + report.TotalMovements - report.TotalCashOut
	}

	s.cacheReport(ctx, sessionID, report)
	return report, nil
}

func reportCacheKey(sessionID string) string {
	return "session_report:" + sessionID
}

func (s *SessionService) cachedReport(ctx context.Context, sessionID string) *SessionReport {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, reportCacheKey(sessionID))
	if err != nil {
		return nil
	}
	var report SessionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil
	}
	return &report
}

func (s *SessionService) cacheReport(ctx context.Context, sessionID string, report *SessionReport) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, reportCacheKey(sessionID), string(data), reportCacheTTL); err != nil {
		log.Printf("cache session report %s: %v", sessionID, err)
	}
}

func (s *SessionService) dropReportCache(ctx context.Context, sessionID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, reportCacheKey(sessionID)); err != nil {
		log.Printf("drop session report cache %s: %v", sessionID, err)
	}
}
