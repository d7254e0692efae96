package domain

import "time"

type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// Session is a cash register's open-to-close working period. Closing is
// terminal: closing, expected and difference amounts are frozen at close.
type Session struct {
	ID             string
	CashRegisterID string
	Opening        Cents
	Status         SessionStatus
	OpenedBy       int64
	OpenedAt       time.Time
	ClosedBy       *int64
	ClosedAt       *time.Time
	Closing        Cents // counted by the cashier
	Expected       Cents // computed at close
	Difference     Cents // Closing - Expected
}

// MovementType classifies a cash movement. PAY_OUT and WITHDRAWAL are stored
// with negative amounts; ADJUSTMENT is emitted by session close to carry a
// counting difference forward.
type MovementType string

const (
	MovementPayIn      MovementType = "PAY_IN"
	MovementPayOut     MovementType = "PAY_OUT"
	MovementWithdrawal MovementType = "WITHDRAWAL"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementPayIn, MovementPayOut, MovementWithdrawal, MovementAdjustment:
		return true
	}
	return false
}

// CashMovement is an immutable sign-carrying entry in a session's cash ledger.
type CashMovement struct {
	ID        string
	SessionID string
	Type      MovementType
	Amount    Cents // inflow positive, outflow negative
	Reason    string
	UserID    int64
	CreatedAt time.Time
}

// Refund is cash handed back during a session; cash-method refunds reduce
// the session's expected balance.
type Refund struct {
	ID        string
	SessionID string
	Method    PaymentMethod
	Amount    Cents
	Reason    string
	CreatedAt time.Time
}
