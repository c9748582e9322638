// Package gateway provides typed access to the token and marketplace
// contracts. All amounts cross this boundary as integers in the asset's
// smallest unit; callers convert to and from display strings elsewhere.
package gateway

import (
	"context"
	"math/big"

	"github.com/vadiminshakov/gridmarket/internal/domain"
)

// TxReceipt describes a mined transaction.
type TxReceipt struct {
	Hash  string
	Block uint64
}

// Gateway is the full read/write surface over the remote ledger. Write
// operations return only after the transaction is included in a block, so a
// returned receipt means the step is settled.
type Gateway interface {
	// BalanceOf returns the account's balance of the asset in smallest units.
	BalanceOf(ctx context.Context, asset domain.Asset, account domain.Account) (*big.Int, error)

	// SaleCount returns the marketplace's next sale id. Ids 0..count-1 all
	// exist, though some may be inactive.
	SaleCount(ctx context.Context) (uint64, error)

	// Sale returns the sale record with the given id.
	Sale(ctx context.Context, id uint64) (domain.SaleRecord, error)

	// Approve grants the spender an allowance over the caller's tokens.
	Approve(ctx context.Context, asset domain.Asset, spender string, amount *big.Int) (TxReceipt, error)

	// CreateSale lists tokens for sale on the marketplace.
	CreateSale(ctx context.Context, asset domain.Asset, amount, price *big.Int) (TxReceipt, error)

	// ExecuteSale purchases the sale, attaching payment equal to price.
	// Price validation is the contract's job, not ours.
	ExecuteSale(ctx context.Context, id uint64, price *big.Int) (TxReceipt, error)
}
