// Package domain defines core data structures used throughout the marketplace client.
package domain

import "strings"

// Account is a ledger address in hex form. Addresses coming back from the
// ledger may be checksummed, so equality must ignore case.
type Account string

// Equal reports whether two accounts refer to the same address.
func (a Account) Equal(other Account) bool {
	return strings.EqualFold(string(a), string(other))
}

// String returns the address as provided, without normalization.
func (a Account) String() string {
	return string(a)
}

// Asset is a token contract tracked by the client.
type Asset struct {
	// Symbol is the display ticker, e.g. ETKN.
	Symbol string
	// Address is the token contract address.
	Address string
	// Decimals is the decimal exponent between the smallest unit and the display unit.
	Decimals int32
}

// Is reports whether the given contract address belongs to this asset.
func (a Asset) Is(address string) bool {
	return strings.EqualFold(a.Address, address)
}
