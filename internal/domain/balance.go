package domain

import "math/big"

// AssetBalance is one account's balance of one asset in smallest units.
// Balances are derived data, recomputed wholesale on each refresh.
type AssetBalance struct {
	Account Account
	Asset   Asset
	Raw     *big.Int
}

// Display returns the balance formatted for the dashboard.
func (b AssetBalance) Display() string {
	return FormatUnits(b.Raw, b.Asset.Decimals, BalanceDisplayPlaces)
}
