// Package cache holds the periodically refreshed local views of ledger state.
// Caches are written only by their own refresh loop; consumers get copies.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/gridmarket/internal/domain"
)

// saleSource is the read slice of the gateway the listing cache needs.
type saleSource interface {
	SaleCount(ctx context.Context) (uint64, error)
	Sale(ctx context.Context, id uint64) (domain.SaleRecord, error)
}

// ListingCache maintains a snapshot of active sales for one asset. Each
// refresh is a full rescan of the escrow's sale range; the ledger exposes no
// indexed feed, and the sale count is expected to stay small.
type ListingCache struct {
	source saleSource
	asset  domain.Asset
	logger *zap.Logger

	inflight sync.Mutex // held for the duration of one refresh

	mu       sync.RWMutex
	snapshot domain.ListingSnapshot
	stale    bool
}

// NewListingCache creates a cache filtered to the given asset.
func NewListingCache(source saleSource, asset domain.Asset, logger *zap.Logger) *ListingCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingCache{
		source: source,
		asset:  asset,
		logger: logger.With(zap.String("asset", asset.Symbol)),
		snapshot: domain.ListingSnapshot{
			Asset: asset,
		},
	}
}

// Refresh rescans the sale range and atomically replaces the snapshot.
// If any read fails the previous snapshot is kept untouched and the cache is
// marked stale. A refresh arriving while another is in flight is coalesced:
// it returns immediately and relies on the next tick.
func (c *ListingCache) Refresh(ctx context.Context) error {
	if !c.inflight.TryLock() {
		c.logger.Debug("listing refresh already in flight, coalescing")
		return nil
	}
	defer c.inflight.Unlock()

	count, err := c.source.SaleCount(ctx)
	if err != nil {
		c.markStale()
		return errors.Wrap(err, "fetch sale count")
	}

	sales := make([]domain.SaleRecord, 0, count)
	for id := uint64(0); id < count; id++ {
		sale, err := c.source.Sale(ctx, id)
		if err != nil {
			c.markStale()
			return errors.Wrapf(err, "fetch sale %d", id)
		}
		if sale.Active && c.asset.Is(sale.Token) {
			sales = append(sales, sale)
		}
	}

	c.mu.Lock()
	c.snapshot = domain.ListingSnapshot{
		Asset:   c.asset,
		Sales:   sales,
		TakenAt: time.Now(),
	}
	c.stale = false
	c.mu.Unlock()

	c.logger.Debug("listing snapshot replaced",
		zap.Uint64("scanned", count),
		zap.Int("active", len(sales)))
	return nil
}

func (c *ListingCache) markStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Snapshot returns a copy of the current snapshot.
func (c *ListingCache) Snapshot() domain.ListingSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.snapshot
	out.Sales = make([]domain.SaleRecord, len(c.snapshot.Sales))
	copy(out.Sales, c.snapshot.Sales)
	return out
}

// Stale reports whether the last refresh attempt failed. The snapshot itself
// stays valid, just possibly behind the ledger.
func (c *ListingCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}
