package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts a USD price to cents. Prices with fractions of a cent
// cannot be charged and are rejected.
func ToMinorUnits(price decimal.Decimal) (int64, error) {
	cents := price.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("price %s has sub-cent precision", price)
	}
	return cents.IntPart(), nil
}

// PlatformFee is the application fee withheld from a checkout of totalCents:
// totalCents * pct / 100, rounded half up to a whole cent.
func PlatformFee(totalCents int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(totalCents).Mul(pct).Shift(-2).Round(0).IntPart()
}
