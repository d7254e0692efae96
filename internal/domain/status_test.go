package domain

import "testing"

func TestDeriveProgress(t *testing.T) {
	cases := []struct {
		name      string
		total     Cents
		allocated Cents
		want      Progress
	}{
		{"nothing allocated", 200000, 0, ProgressNone},
		{"partial", 200000, 120000, ProgressPartial},
		{"exact", 18000, 18000, ProgressFull},
		{"one cent short", 18000, 17999, ProgressPartial},
		{"over-covered", 18000, 18001, ProgressFull},
		{"zero total", 0, 0, ProgressFull},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DeriveProgress(c.total, c.allocated); got != c.want {
				t.Errorf("DeriveProgress(%d, %d) = %v, want %v", c.total, c.allocated, got, c.want)
			}
		})
	}
}

func TestObligationStatusFor(t *testing.T) {
	o := &Obligation{Total: 200000}
	if got := o.StatusFor(0); got != ObligationUnpaid {
		t.Errorf("StatusFor(0) = %s, want UNPAID", got)
	}
	if got := o.StatusFor(120000); got != ObligationPartiallyPaid {
		t.Errorf("StatusFor(120000) = %s, want PARTIALLY_PAID", got)
	}
	if got := o.StatusFor(200000); got != ObligationPaid {
		t.Errorf("StatusFor(200000) = %s, want PAID", got)
	}
}

func TestObligationEligible(t *testing.T) {
	eligible := map[ObligationStatus]bool{
		ObligationDraft:         false,
		ObligationUnpaid:        true,
		ObligationPartiallyPaid: true,
		ObligationPaid:          false,
		ObligationRefunded:      false,
		ObligationVoid:          false,
	}
	for status, want := range eligible {
		o := &Obligation{Status: status}
		if got := o.Eligible(); got != want {
			t.Errorf("Eligible() with status %s = %v, want %v", status, got, want)
		}
	}
}

func TestResourceStatusFor(t *testing.T) {
	payment := &Resource{Kind: ResourcePayment, Total: 50000}
	if got := payment.StatusFor(0); got != ResourceAvailable {
		t.Errorf("payment StatusFor(0) = %s, want AVAILABLE", got)
	}
	if got := payment.StatusFor(20250); got != ResourcePartiallyAllocated {
		t.Errorf("payment StatusFor(20250) = %s, want PARTIALLY_ALLOCATED", got)
	}
	if got := payment.StatusFor(50000); got != ResourceFullyAllocated {
		t.Errorf("payment StatusFor(50000) = %s, want FULLY_ALLOCATED", got)
	}

	note := &Resource{Kind: ResourceCreditNote, Total: 50000}
	if got := note.StatusFor(0); got != ResourceAvailable {
		t.Errorf("credit note StatusFor(0) = %s, want AVAILABLE", got)
	}
	if got := note.StatusFor(100); got != ResourcePartiallyUsed {
		t.Errorf("credit note StatusFor(100) = %s, want PARTIALLY_USED", got)
	}
	if got := note.StatusFor(50000); got != ResourceFullyUsed {
		t.Errorf("credit note StatusFor(50000) = %s, want FULLY_USED", got)
	}
}

func TestResourceKindObligationKind(t *testing.T) {
	if got := ResourcePayment.ObligationKind(); got != ObligationCustomerInvoice {
		t.Errorf("PAYMENT maps to %s, want CUSTOMER_INVOICE", got)
	}
	if got := ResourceCreditNote.ObligationKind(); got != ObligationCustomerInvoice {
		t.Errorf("CREDIT_NOTE maps to %s, want CUSTOMER_INVOICE", got)
	}
	if got := ResourceSupplierPayment.ObligationKind(); got != ObligationSupplierInvoice {
		t.Errorf("SUPPLIER_PAYMENT maps to %s, want SUPPLIER_INVOICE", got)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFoundf("obligation %s not found", "x")); got != KindNotFound {
		t.Errorf("KindOf = %s, want NOT_FOUND", got)
	}
	if got := KindOf(errPlain); got != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", got)
	}
}

var errPlain = &plainError{}

type plainError struct{}

func (*plainError) Error() string { return "plain" }
