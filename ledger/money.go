/*
money.go - Conversion between decimal major units and int64 minor units

PURPOSE:
  The wire format for amounts is a decimal value in major units
  ("25.50"). The core works exclusively in int64 minor units. This file
  owns the conversion and the amount validation shared by every
  operation.

VALIDATION:
  An amount is valid iff it is strictly positive and has no sub-cent
  precision. Everything else is ErrInvalidAmount, detected before any
  store call.
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitExponent shifts between major and minor units (2 = cents).
const minorUnitExponent = 2

// ToMinorUnits converts a major-unit decimal amount to minor units.
// Returns ErrInvalidAmount if the amount is not strictly positive, has
// sub-cent precision, or overflows int64.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amount)
	}

	minor := amount.Shift(minorUnitExponent)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s has sub-cent precision", ErrInvalidAmount, amount)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: amount %s out of range", ErrInvalidAmount, amount)
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts minor units back to a major-unit decimal.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExponent)
}
