package cache

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/gridmarket/internal/domain"
)

type balanceSource interface {
	BalanceOf(ctx context.Context, asset domain.Asset, account domain.Account) (*big.Int, error)
}

// BalanceCache holds the current account's balances across the tracked asset
// set. A tick commits either every balance or none: showing one fresh number
// next to one stale number would misrepresent consistency.
type BalanceCache struct {
	source  balanceSource
	account domain.Account
	assets  []domain.Asset
	logger  *zap.Logger

	mu       sync.RWMutex
	balances map[string]domain.AssetBalance // keyed by symbol
	stale    bool
}

// NewBalanceCache creates a cache for the account across the fixed asset set.
func NewBalanceCache(source balanceSource, account domain.Account, assets []domain.Asset, logger *zap.Logger) *BalanceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceCache{
		source:   source,
		account:  account,
		assets:   assets,
		logger:   logger.With(zap.String("account", account.String())),
		balances: make(map[string]domain.AssetBalance),
	}
}

// Refresh fetches every tracked balance and commits them together.
func (c *BalanceCache) Refresh(ctx context.Context) error {
	fresh := make(map[string]domain.AssetBalance, len(c.assets))
	for _, asset := range c.assets {
		raw, err := c.source.BalanceOf(ctx, asset, c.account)
		if err != nil {
			c.mu.Lock()
			c.stale = true
			c.mu.Unlock()
			return errors.Wrapf(err, "fetch %s balance", asset.Symbol)
		}
		fresh[asset.Symbol] = domain.AssetBalance{
			Account: c.account,
			Asset:   asset,
			Raw:     raw,
		}
	}

	c.mu.Lock()
	c.balances = fresh
	c.stale = false
	c.mu.Unlock()

	c.logger.Debug("balances refreshed", zap.Int("assets", len(fresh)))
	return nil
}

// Balance returns the cached balance for the asset symbol.
func (c *BalanceCache) Balance(symbol string) (domain.AssetBalance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bal, ok := c.balances[symbol]
	return bal, ok
}

// Balances returns a copy of all cached balances.
func (c *BalanceCache) Balances() map[string]domain.AssetBalance {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]domain.AssetBalance, len(c.balances))
	for k, v := range c.balances {
		out[k] = v
	}
	return out
}

// Stale reports whether the last refresh attempt failed.
func (c *BalanceCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}
