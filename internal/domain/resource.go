package domain

import "time"

// ResourceKind distinguishes money sources. Credit notes share the
// allocation mechanics of payments but use their own status vocabulary.
type ResourceKind string

const (
	ResourcePayment         ResourceKind = "PAYMENT"
	ResourceSupplierPayment ResourceKind = "SUPPLIER_PAYMENT"
	ResourceCreditNote      ResourceKind = "CREDIT_NOTE"
)

func (k ResourceKind) Valid() bool {
	return k == ResourcePayment || k == ResourceSupplierPayment || k == ResourceCreditNote
}

// ObligationKind returns the ledger direction this resource settles against.
func (k ResourceKind) ObligationKind() ObligationKind {
	if k == ResourceSupplierPayment {
		return ObligationSupplierInvoice
	}
	return ObligationCustomerInvoice
}

type ResourceStatus string

const (
	ResourceAvailable          ResourceStatus = "AVAILABLE"
	ResourcePartiallyAllocated ResourceStatus = "PARTIALLY_ALLOCATED"
	ResourceFullyAllocated     ResourceStatus = "FULLY_ALLOCATED"
	ResourcePartiallyUsed      ResourceStatus = "PARTIALLY_USED"
	ResourceFullyUsed          ResourceStatus = "FULLY_USED"
)

// PaymentMethod is how money physically moved. Cash-method resources count
// toward a cash register session's expected balance.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheck        PaymentMethod = "CHECK"
	MethodOther        PaymentMethod = "OTHER"
)

// Resource is a money source with a fixed total. Its remaining capacity is
// always total minus the live allocation sum; nothing is decremented in
// place, including for credit notes.
type Resource struct {
	ID             string
	Kind           ResourceKind
	CounterpartyID string
	Total          Cents
	Method         PaymentMethod
	SessionID      string // cash register session, empty outside POS flows
	Status         ResourceStatus
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StatusFor maps settlement progress to the resource vocabulary, which for
// credit notes reads USED instead of ALLOCATED.
func (r *Resource) StatusFor(allocated Cents) ResourceStatus {
	progress := DeriveProgress(r.Total, allocated)
	if r.Kind == ResourceCreditNote {
		switch progress {
		case ProgressFull:
			return ResourceFullyUsed
		case ProgressPartial:
			return ResourcePartiallyUsed
		default:
			return ResourceAvailable
		}
	}
	switch progress {
	case ProgressFull:
		return ResourceFullyAllocated
	case ProgressPartial:
		return ResourcePartiallyAllocated
	default:
		return ResourceAvailable
	}
}
