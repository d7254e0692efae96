package domain

import "time"

// ObligationKind distinguishes the two ledger directions.
type ObligationKind string

const (
	ObligationCustomerInvoice ObligationKind = "CUSTOMER_INVOICE"
	ObligationSupplierInvoice ObligationKind = "SUPPLIER_INVOICE"
)

func (k ObligationKind) Valid() bool {
	return k == ObligationCustomerInvoice || k == ObligationSupplierInvoice
}

type ObligationStatus string

const (
	ObligationDraft         ObligationStatus = "DRAFT"
	ObligationUnpaid        ObligationStatus = "UNPAID"
	ObligationPartiallyPaid ObligationStatus = "PARTIALLY_PAID"
	ObligationPaid          ObligationStatus = "PAID"
	ObligationRefunded      ObligationStatus = "REFUNDED"
	ObligationVoid          ObligationStatus = "VOID"
)

// Obligation is a billable document with a fixed total. Its status and
// remaining due are derived from its allocation records, never stored
// arithmetic.
type Obligation struct {
	ID             string
	Kind           ObligationKind
	CounterpartyID string
	Total          Cents
	DueDate        time.Time
	Status         ObligationStatus
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Eligible reports whether the obligation can still receive allocations.
func (o *Obligation) Eligible() bool {
	return o.Status == ObligationUnpaid || o.Status == ObligationPartiallyPaid
}

// StatusFor maps settlement progress to the obligation vocabulary.
func (o *Obligation) StatusFor(allocated Cents) ObligationStatus {
	switch DeriveProgress(o.Total, allocated) {
	case ProgressFull:
		return ObligationPaid
	case ProgressPartial:
		return ObligationPartiallyPaid
	default:
		return ObligationUnpaid
	}
}
