package cache

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/gridmarket/internal/domain"
	"github.com/vadiminshakov/gridmarket/internal/gateway"
)

var (
	etkn = domain.Asset{Symbol: "ETKN", Address: "0x1000000000000000000000000000000000000001", Decimals: 18}
	cct  = domain.Asset{Symbol: "CCT", Address: "0x2000000000000000000000000000000000000002", Decimals: 18}

	escrowAddr = "0x9000000000000000000000000000000000000009"
	seller     = domain.Account("0xAAAA000000000000000000000000000000000001")
	buyer      = domain.Account("0xBBBB000000000000000000000000000000000002")
)

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestListingCacheFiltersActiveMatchingSales(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	fake.AddSale(seller, etkn.Address, wei(100), wei(1))     // 0: kept
	fake.AddSale(seller, cct.Address, wei(50), wei(1))       // 1: wrong asset
	inactive := fake.AddSale(seller, etkn.Address, wei(10), wei(2)) // 2: will be bought out
	fake.AddSale(seller, etkn.Address, wei(7), wei(3))       // 3: kept

	_, err := fake.ExecuteSale(context.Background(), inactive, wei(2))
	require.NoError(t, err)

	cache := NewListingCache(fake, etkn, nil)
	require.NoError(t, cache.Refresh(context.Background()))

	snap := cache.Snapshot()
	require.Len(t, snap.Sales, 2)
	// scan order by id
	assert.Equal(t, uint64(0), snap.Sales[0].ID)
	assert.Equal(t, uint64(3), snap.Sales[1].ID)
	assert.False(t, cache.Stale())
	assert.False(t, snap.TakenAt.IsZero())
}

func TestListingCacheRefreshIsAllOrNothing(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	fake.AddSale(seller, etkn.Address, wei(100), wei(1))
	fake.AddSale(seller, etkn.Address, wei(25), wei(2))

	cache := NewListingCache(fake, etkn, nil)
	require.NoError(t, cache.Refresh(context.Background()))
	before := cache.Snapshot()
	require.Len(t, before.Sales, 2)

	// new sale appears, but a read in the middle of the scan fails
	fake.AddSale(seller, etkn.Address, wei(5), wei(1))
	fake.FailSaleAt(1, &gateway.NetworkError{Cause: errors.New("timeout")})

	err := cache.Refresh(context.Background())
	require.Error(t, err)

	after := cache.Snapshot()
	assert.Equal(t, before.Sales, after.Sales, "failed refresh must not touch the snapshot")
	assert.Equal(t, before.TakenAt, after.TakenAt)
	assert.True(t, cache.Stale())

	// once reads recover, the next refresh picks everything up
	fake.FailSaleAt(1, nil)
	require.NoError(t, cache.Refresh(context.Background()))
	assert.Len(t, cache.Snapshot().Sales, 3)
	assert.False(t, cache.Stale())
}

func TestListingCacheCoalescesConcurrentRefresh(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	fake.AddSale(seller, etkn.Address, wei(100), wei(1))
	fake.Hold("SaleCount")

	cache := NewListingCache(fake, etkn, nil)

	done := make(chan error, 1)
	go func() {
		done <- cache.Refresh(context.Background())
	}()

	// wait until the first refresh is inside the gateway call
	for fake.Calls("SaleCount") == 0 {
		time.Sleep(time.Millisecond)
	}

	// second refresh must coalesce instead of queueing
	require.NoError(t, cache.Refresh(context.Background()))
	assert.Equal(t, 1, fake.Calls("SaleCount"))

	fake.Release("SaleCount")
	require.NoError(t, <-done)
	assert.Len(t, cache.Snapshot().Sales, 1)
}

func TestListingCacheSnapshotIsACopy(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	fake.AddSale(seller, etkn.Address, wei(100), wei(1))

	cache := NewListingCache(fake, etkn, nil)
	require.NoError(t, cache.Refresh(context.Background()))

	snap := cache.Snapshot()
	snap.Sales[0].Active = false

	assert.True(t, cache.Snapshot().Sales[0].Active)
}
