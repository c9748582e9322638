package cache

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/gridmarket/internal/domain"
	"github.com/vadiminshakov/gridmarket/internal/gateway"
)

func TestBalanceCacheRefresh(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	fake.SetBalance(etkn, buyer, wei(42))
	fake.SetBalance(cct, buyer, wei(7))

	cache := NewBalanceCache(fake, buyer, []domain.Asset{etkn, cct}, nil)
	require.NoError(t, cache.Refresh(context.Background()))

	bal, ok := cache.Balance("ETKN")
	require.True(t, ok)
	assert.Equal(t, wei(42), bal.Raw)
	assert.Equal(t, "42.0000", bal.Display())

	bal, ok = cache.Balance("CCT")
	require.True(t, ok)
	assert.Equal(t, wei(7), bal.Raw)
	assert.False(t, cache.Stale())
}

func TestBalanceCacheTickIsAllOrNothing(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	fake.SetBalance(etkn, buyer, wei(42))
	fake.SetBalance(cct, buyer, wei(7))

	cache := NewBalanceCache(fake, buyer, []domain.Asset{etkn, cct}, nil)
	require.NoError(t, cache.Refresh(context.Background()))

	// ETKN read succeeds with a new value, CCT read fails: nothing commits
	fake.SetBalance(etkn, buyer, wei(100))
	fake.FailBalanceOf(cct, &gateway.NetworkError{Cause: errors.New("timeout")})

	require.Error(t, cache.Refresh(context.Background()))
	assert.True(t, cache.Stale())

	bal, _ := cache.Balance("ETKN")
	assert.Equal(t, wei(42), bal.Raw, "fresh ETKN value must not be applied partially")
	bal, _ = cache.Balance("CCT")
	assert.Equal(t, wei(7), bal.Raw)

	fake.FailBalanceOf(cct, nil)
	require.NoError(t, cache.Refresh(context.Background()))
	bal, _ = cache.Balance("ETKN")
	assert.Equal(t, wei(100), bal.Raw)
	assert.False(t, cache.Stale())
}

func TestBalanceCacheUnknownSymbol(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	cache := NewBalanceCache(fake, buyer, []domain.Asset{etkn}, nil)

	_, ok := cache.Balance("DOGE")
	assert.False(t, ok)
	assert.Empty(t, cache.Balances())
}
