package gateway

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/gridmarket/internal/domain"
)

// FakeGateway is an in-memory marketplace implementing the same contract
// semantics as the deployed escrow: allowance-gated sale creation, exact
// payment on execution, dense sale ids. Tests script failures per operation
// and assert on recorded calls.
type FakeGateway struct {
	mu         sync.Mutex
	account    domain.Account
	escrow     string
	balances   map[string]*big.Int // token|account -> amount
	allowances map[string]*big.Int // token|owner -> amount granted to escrow
	sales      []domain.SaleRecord
	calls      map[string]int
	failures   map[string]error
	failSale   map[uint64]error
	failToken  map[string]error
	holds      map[string]chan struct{}
	nextBlock  uint64
}

// NewFakeGateway creates a fake acting as the given signing account.
func NewFakeGateway(account domain.Account, escrow string) *FakeGateway {
	return &FakeGateway{
		account:    account,
		escrow:     escrow,
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]*big.Int),
		calls:      make(map[string]int),
		failures:   make(map[string]error),
		failSale:   make(map[uint64]error),
		failToken:  make(map[string]error),
		holds:      make(map[string]chan struct{}),
	}
}

func balanceKey(token string, account domain.Account) string {
	return strings.ToLower(token) + "|" + strings.ToLower(account.String())
}

// Account returns the fake's signing identity.
func (f *FakeGateway) Account() domain.Account {
	return f.account
}

// SetAccount switches the signing identity, emulating a wallet account change.
func (f *FakeGateway) SetAccount(account domain.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.account = account
}

// SetBalance seeds a token balance.
func (f *FakeGateway) SetBalance(asset domain.Asset, account domain.Account, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[balanceKey(asset.Address, account)] = new(big.Int).Set(amount)
}

// AddSale seeds a listing as if another seller had created it.
func (f *FakeGateway) AddSale(seller domain.Account, token string, amount, price *big.Int) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uint64(len(f.sales))
	f.sales = append(f.sales, domain.SaleRecord{
		ID:     id,
		Seller: seller,
		Token:  token,
		Amount: new(big.Int).Set(amount),
		Price:  new(big.Int).Set(price),
		Active: true,
	})
	return id
}

// FailWith makes every subsequent call to the named operation return err.
// Pass nil to clear.
func (f *FakeGateway) FailWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// FailSaleAt makes Sale(id) return err, leaving other ids untouched.
func (f *FakeGateway) FailSaleAt(id uint64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failSale, id)
		return
	}
	f.failSale[id] = err
}

// FailBalanceOf makes balance reads for one token fail while reads for the
// other tracked tokens keep working.
func (f *FakeGateway) FailBalanceOf(asset domain.Asset, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(asset.Address)
	if err == nil {
		delete(f.failToken, key)
		return
	}
	f.failToken[key] = err
}

// Hold blocks the named operation until Release is called, so tests can
// observe in-flight state.
func (f *FakeGateway) Hold(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holds[op] = make(chan struct{})
}

// Release unblocks a held operation.
func (f *FakeGateway) Release(op string) {
	f.mu.Lock()
	hold := f.holds[op]
	delete(f.holds, op)
	f.mu.Unlock()
	if hold != nil {
		close(hold)
	}
}

// Calls returns how many times the named operation was dispatched.
func (f *FakeGateway) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// enter records the call, applies scripted failures and blocks on holds.
// The fake's mutex is NOT held while waiting.
func (f *FakeGateway) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.failures[op]
	hold := f.holds[op]
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return &NetworkError{Cause: ctx.Err()}
		}
	}
	return err
}

func (f *FakeGateway) BalanceOf(ctx context.Context, asset domain.Asset, account domain.Account) (*big.Int, error) {
	if err := f.enter(ctx, "BalanceOf"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failToken[strings.ToLower(asset.Address)]; ok {
		return nil, err
	}
	if bal, ok := f.balances[balanceKey(asset.Address, account)]; ok {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

func (f *FakeGateway) SaleCount(ctx context.Context) (uint64, error) {
	if err := f.enter(ctx, "SaleCount"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sales)), nil
}

func (f *FakeGateway) Sale(ctx context.Context, id uint64) (domain.SaleRecord, error) {
	if err := f.enter(ctx, "Sale"); err != nil {
		return domain.SaleRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failSale[id]; ok {
		return domain.SaleRecord{}, err
	}
	if id >= uint64(len(f.sales)) {
		return domain.SaleRecord{}, &RevertError{Reason: fmt.Sprintf("sale %d does not exist", id)}
	}
	return f.sales[id], nil
}

func (f *FakeGateway) Approve(ctx context.Context, asset domain.Asset, spender string, amount *big.Int) (TxReceipt, error) {
	if err := f.enter(ctx, "Approve"); err != nil {
		return TxReceipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !strings.EqualFold(spender, f.escrow) {
		return TxReceipt{}, errors.Errorf("unexpected spender %s", spender)
	}
	f.allowances[balanceKey(asset.Address, f.account)] = new(big.Int).Set(amount)
	return f.mined(), nil
}

func (f *FakeGateway) CreateSale(ctx context.Context, asset domain.Asset, amount, price *big.Int) (TxReceipt, error) {
	if err := f.enter(ctx, "CreateSale"); err != nil {
		return TxReceipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := balanceKey(asset.Address, f.account)
	allowance := f.allowances[key]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return TxReceipt{}, &RevertError{Reason: allowanceRevertMarker}
	}
	f.allowances[key] = new(big.Int).Sub(allowance, amount)

	f.sales = append(f.sales, domain.SaleRecord{
		ID:     uint64(len(f.sales)),
		Seller: f.account,
		Token:  asset.Address,
		Amount: new(big.Int).Set(amount),
		Price:  new(big.Int).Set(price),
		Active: true,
	})
	return f.mined(), nil
}

func (f *FakeGateway) ExecuteSale(ctx context.Context, id uint64, price *big.Int) (TxReceipt, error) {
	if err := f.enter(ctx, "ExecuteSale"); err != nil {
		return TxReceipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if id >= uint64(len(f.sales)) {
		return TxReceipt{}, &RevertError{Reason: fmt.Sprintf("sale %d does not exist", id)}
	}
	sale := &f.sales[id]
	if !sale.Active {
		return TxReceipt{}, &RevertError{Reason: "sale is not active"}
	}
	if price == nil || sale.Price.Cmp(price) != 0 {
		return TxReceipt{}, &RevertError{Reason: "incorrect payment amount"}
	}

	sale.Active = false

	key := balanceKey(sale.Token, f.account)
	bal := f.balances[key]
	if bal == nil {
		bal = new(big.Int)
	}
	f.balances[key] = new(big.Int).Add(bal, sale.Amount)

	return f.mined(), nil
}

func (f *FakeGateway) mined() TxReceipt {
	f.nextBlock++
	return TxReceipt{
		Hash:  fmt.Sprintf("0x%064x", f.nextBlock),
		Block: f.nextBlock,
	}
}
