package domain

import (
	"math/big"
	"time"
)

// SaleRecord is a read-only copy of one escrow listing. The escrow contract
// owns the record; local copies may be stale.
type SaleRecord struct {
	ID     uint64
	Seller Account
	// Token is the address of the token contract being sold.
	Token  string
	Amount *big.Int
	Price  *big.Int
	Active bool
}

// ListingSnapshot is the set of active listings for one asset produced by a
// single refresh cycle. Snapshots are replaced wholesale, never merged.
type ListingSnapshot struct {
	Asset   Asset
	Sales   []SaleRecord
	TakenAt time.Time
}
