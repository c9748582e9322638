package lifecycle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/gridmarket/internal/cache"
	"github.com/vadiminshakov/gridmarket/internal/domain"
	"github.com/vadiminshakov/gridmarket/internal/gateway"
)

func TestPurchaseSelfListingGate(t *testing.T) {
	fake := gateway.NewFakeGateway(seller, escrowAddr)
	id := fake.AddSale(seller, etkn.Address, wei(100), wei(1))
	ctrl := NewPurchaseController(fake, activeSession(seller), etkn, nil, nil, nil)

	sale, err := fake.Sale(context.Background(), id)
	require.NoError(t, err)

	// checksummed seller vs lowercased current account are the same identity
	assert.False(t, ctrl.CanPurchase(sale, seller))
	assert.False(t, ctrl.CanPurchase(sale, domain.Account(strings.ToLower(seller.String()))))
	assert.True(t, ctrl.CanPurchase(sale, buyer))

	err = ctrl.Purchase(context.Background(), sale)
	assert.ErrorIs(t, err, ErrOwnListing)
	assert.Equal(t, 0, fake.Calls("ExecuteSale"))
	assert.Equal(t, PhaseIdle, ctrl.State(id).Phase)
}

func TestPurchaseSuccessRemovesListingOnNextRefresh(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	fake.AddSale(seller, etkn.Address, wei(100), wei(1))
	target := fake.AddSale(seller, etkn.Address, wei(10), wei(2))

	listings := cache.NewListingCache(fake, etkn, nil)
	require.NoError(t, listings.Refresh(context.Background()))
	require.Len(t, listings.Snapshot().Sales, 2)

	refreshed := 0
	ctrl := NewPurchaseController(fake, activeSession(buyer), etkn, func() { refreshed++ }, nil, nil)

	sale, err := fake.Sale(context.Background(), target)
	require.NoError(t, err)
	require.NoError(t, ctrl.Purchase(context.Background(), sale))

	state := ctrl.State(target)
	assert.Equal(t, PhasePurchased, state.Phase)
	assert.Equal(t, "Purchase successful!", state.Message)
	assert.Equal(t, 1, refreshed, "success must request a listing refresh")

	require.NoError(t, listings.Refresh(context.Background()))
	snap := listings.Snapshot()
	require.Len(t, snap.Sales, 1)
	assert.Equal(t, uint64(0), snap.Sales[0].ID, "purchased listing must drop out")

	// tokens arrived
	bal, err := fake.BalanceOf(context.Background(), etkn, buyer)
	require.NoError(t, err)
	assert.Equal(t, wei(10), bal)
}

func TestPurchaseFailureKeepsListing(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	id := fake.AddSale(seller, etkn.Address, wei(100), wei(1))

	listings := cache.NewListingCache(fake, etkn, nil)
	require.NoError(t, listings.Refresh(context.Background()))

	refreshed := 0
	ctrl := NewPurchaseController(fake, activeSession(buyer), etkn, func() { refreshed++ }, nil, nil)

	sale, err := fake.Sale(context.Background(), id)
	require.NoError(t, err)

	fake.FailWith("ExecuteSale", &gateway.NetworkError{Cause: errors.New("timeout")})
	require.Error(t, ctrl.Purchase(context.Background(), sale))

	state := ctrl.State(id)
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Contains(t, state.Message, "Purchase failed")
	assert.Equal(t, 0, refreshed, "failure must not trigger optimistic removal")

	// the listing must still appear until the cache confirms otherwise
	assert.Len(t, listings.Snapshot().Sales, 1)
}

func TestPurchaseStatesAreIndependentPerListing(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	first := fake.AddSale(seller, etkn.Address, wei(100), wei(1))
	second := fake.AddSale(seller, etkn.Address, wei(50), wei(2))

	ctrl := NewPurchaseController(fake, activeSession(buyer), etkn, nil, nil, nil)

	firstSale, err := fake.Sale(context.Background(), first)
	require.NoError(t, err)
	secondSale, err := fake.Sale(context.Background(), second)
	require.NoError(t, err)

	fake.FailWith("ExecuteSale", &gateway.RevertError{Reason: "sale is not active"})
	require.Error(t, ctrl.Purchase(context.Background(), firstSale))
	fake.FailWith("ExecuteSale", nil)

	assert.Equal(t, PhaseFailed, ctrl.State(first).Phase)
	assert.Equal(t, PhaseIdle, ctrl.State(second).Phase, "one listing's failure must not leak")

	require.NoError(t, ctrl.Purchase(context.Background(), secondSale))
	assert.Equal(t, PhasePurchased, ctrl.State(second).Phase)
	assert.Equal(t, PhaseFailed, ctrl.State(first).Phase)
}

func TestPurchaseRefusesReentrantDispatch(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	id := fake.AddSale(seller, etkn.Address, wei(100), wei(1))
	fake.Hold("ExecuteSale")

	ctrl := NewPurchaseController(fake, activeSession(buyer), etkn, nil, nil, nil)
	sale, err := fake.Sale(context.Background(), id)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Purchase(context.Background(), sale)
	}()
	for fake.Calls("ExecuteSale") == 0 {
		time.Sleep(time.Millisecond)
	}

	err = ctrl.Purchase(context.Background(), sale)
	assert.ErrorIs(t, err, ErrBusy)

	fake.Release("ExecuteSale")
	require.NoError(t, <-done)
	assert.Equal(t, 1, fake.Calls("ExecuteSale"), "exactly one remote call per action")
}

func TestPurchaseDiscardsResultAfterSessionEnd(t *testing.T) {
	fake := gateway.NewFakeGateway(buyer, escrowAddr)
	id := fake.AddSale(seller, etkn.Address, wei(100), wei(1))
	fake.Hold("ExecuteSale")

	sess := activeSession(buyer)
	ctrl := NewPurchaseController(fake, sess, etkn, nil, nil, nil)
	sale, err := fake.Sale(context.Background(), id)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Purchase(context.Background(), sale)
	}()
	for fake.Calls("ExecuteSale") == 0 {
		time.Sleep(time.Millisecond)
	}

	sess.End()
	fake.Release("ExecuteSale")
	require.NoError(t, <-done)

	assert.NotEqual(t, PhasePurchased, ctrl.State(id).Phase)
}
