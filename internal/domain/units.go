package domain

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Display precision per surface. Raw integer amounts are truncated, never
// rounded, when formatted for humans.
const (
	BalanceDisplayPlaces = 4
	AmountDisplayPlaces  = 2
	PriceDisplayPlaces   = 5
)

// ParseUnits converts a human decimal string into an integer amount in the
// asset's smallest unit. Malformed and negative input is rejected. Input with
// a fractional part below one smallest unit is rejected as well: the ledger
// only understands integers, so silently rounding would move value.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed amount %q", s)
	}
	if d.IsNegative() {
		return nil, errors.Errorf("negative amount %q", s)
	}

	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, errors.Errorf("amount %q is below one smallest unit", s)
	}

	return scaled.BigInt(), nil
}

// FormatUnits renders a smallest-unit integer as a decimal string truncated
// to the given number of places.
func FormatUnits(raw *big.Int, decimals, places int32) string {
	if raw == nil {
		raw = new(big.Int)
	}
	return decimal.NewFromBigInt(raw, -decimals).Truncate(places).StringFixed(places)
}
