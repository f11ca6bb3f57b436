package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorPerMajor is the number of kobo in one naira.
const MinorPerMajor = 100

func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ToMinor converts a major-unit amount to kobo. Amounts finer than one kobo are rejected.
func ToMinor(major decimal.Decimal) (int64, error) {
	shifted := major.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", major)
	}
	return shifted.IntPart(), nil
}
