package domain

import (
	"math"
	"testing"
)

func TestCentsFromFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want Cents
	}{
		{0, 0},
		{12.34, 1234},
		{1200.00, 120000},
		{157.50, 15750},
		{0.01, 1},
		{-20.00, -2000},
		{0.005, 1}, // rounds half away from zero
		{96.50, 9650},
	}
	for _, c := range cases {
		got, err := CentsFromFloat(c.in)
		if err != nil {
			t.Fatalf("CentsFromFloat(%v): unexpected error %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("CentsFromFloat(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCentsFromFloat_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := CentsFromFloat(v); err == nil {
			t.Errorf("CentsFromFloat(%v): expected error", v)
		} else if KindOf(err) != KindInvalidAmount {
			t.Errorf("CentsFromFloat(%v): expected INVALID_AMOUNT, got %s", v, KindOf(err))
		}
	}
}

func TestCentsString(t *testing.T) {
	cases := []struct {
		in   Cents
		want string
	}{
		{0, "0.00"},
		{1234, "12.34"},
		{5, "0.05"},
		{-150, "-1.50"},
		{120000, "1200.00"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("Cents(%d).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCentsFloat64(t *testing.T) {
	if got := Cents(29750).Float64(); got != 297.50 {
		t.Errorf("Float64() = %v, want 297.50", got)
	}
}
