package domain

import (
	"fmt"
	"math"
)

// Cents is a monetary amount in minor units. All ledger arithmetic is done
// on integers; floats only appear at the API boundary.
type Cents int64

// CentsFromFloat converts a major-unit amount (e.g. 12.34) to cents,
// rounding to the nearest cent.
func CentsFromFloat(v float64) (Cents, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, InvalidAmountf("amount is not a finite number")
	}
	return Cents(math.Round(v * 100)), nil
}

// Float64 returns the amount in major units.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	sign := ""
	v := c
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
