package lifecycle

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/gridmarket/internal/domain"
	"github.com/vadiminshakov/gridmarket/internal/gateway"
	"github.com/vadiminshakov/gridmarket/internal/journal"
	"github.com/vadiminshakov/gridmarket/internal/session"
)

// ErrOwnListing marks an attempt to buy one's own sale. The action is gated
// on availability, so hitting this means the caller skipped the gate.
var ErrOwnListing = errors.New("cannot purchase own listing")

type purchaseGateway interface {
	ExecuteSale(ctx context.Context, id uint64, price *big.Int) (gateway.TxReceipt, error)
}

// PurchaseController drives the single-step buy workflow. State is tracked
// per sale id, so one listing's pending or failed purchase leaves every other
// listing's display state alone.
type PurchaseController struct {
	gw      purchaseGateway
	session *session.Session
	asset   domain.Asset
	refresh func()
	journal recorder
	logger  *zap.Logger

	mu     sync.Mutex
	states map[uint64]State
}

// NewPurchaseController wires the buy workflow. refresh is called after a
// successful purchase so the now-inactive listing drops out of the next
// snapshot; it must not block.
func NewPurchaseController(gw purchaseGateway, sess *session.Session, asset domain.Asset,
	refresh func(), jrnl recorder, logger *zap.Logger) *PurchaseController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if refresh == nil {
		refresh = func() {}
	}
	return &PurchaseController{
		gw:      gw,
		session: sess,
		asset:   asset,
		refresh: refresh,
		journal: jrnl,
		logger:  logger.With(zap.String("workflow", "purchase")),
		states:  make(map[uint64]State),
	}
}

// State returns the purchase state of the given sale.
func (c *PurchaseController) State(id uint64) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[id]
}

// CanPurchase reports whether the account may buy the sale. Sellers are not
// offered their own listings; the comparison ignores address case.
func (c *PurchaseController) CanPurchase(sale domain.SaleRecord, account domain.Account) bool {
	return !sale.Seller.Equal(account)
}

// Purchase executes the sale, paying exactly the listed price. On failure the
// listing stays in the snapshot untouched until the cache re-fetches its
// actual status; nothing is removed optimistically.
func (c *PurchaseController) Purchase(ctx context.Context, sale domain.SaleRecord) error {
	account, ok := c.session.Account()
	if !ok {
		return ErrNoSession
	}
	if !c.CanPurchase(sale, account) {
		return ErrOwnListing
	}

	guard, err := c.begin(sale.ID)
	if err != nil {
		return err
	}

	receipt, err := c.gw.ExecuteSale(ctx, sale.ID, sale.Price)
	if err != nil {
		c.settle(guard, sale.ID, State{Phase: PhaseFailed, Message: "Purchase failed: " + humanize(err)})
		c.record(account, sale, journal.Entry{Kind: "purchase", Outcome: "failed", Message: humanize(err)})
		return errors.Wrapf(err, "execute sale %d", sale.ID)
	}

	c.settle(guard, sale.ID, State{Phase: PhasePurchased, Message: "Purchase successful!"})
	c.record(account, sale, journal.Entry{Kind: "purchase", TxHash: receipt.Hash, Outcome: "confirmed"})
	c.refresh()

	c.logger.Info("sale purchased",
		zap.Uint64("sale_id", sale.ID),
		zap.String("tx", receipt.Hash))
	return nil
}

func (c *PurchaseController) begin(id uint64) (session.Guard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[id].Pending() {
		return session.Guard{}, ErrBusy
	}
	c.states[id] = State{Phase: PhasePurchasing, Message: "Processing transaction..."}
	return c.session.Guard(), nil
}

func (c *PurchaseController) settle(guard session.Guard, id uint64, next State) {
	if !guard.Valid() {
		c.logger.Debug("discarding purchase result, session ended", zap.Uint64("sale_id", id))
		return
	}
	c.mu.Lock()
	c.states[id] = next
	c.mu.Unlock()
}

func (c *PurchaseController) record(account domain.Account, sale domain.SaleRecord, entry journal.Entry) {
	if c.journal == nil {
		return
	}
	id := sale.ID
	entry.Time = time.Now()
	entry.Account = account
	entry.Asset = c.asset.Symbol
	entry.SaleID = &id
	entry.Amount = domain.FormatUnits(sale.Amount, c.asset.Decimals, domain.AmountDisplayPlaces)
	entry.Price = domain.FormatUnits(sale.Price, c.asset.Decimals, domain.PriceDisplayPlaces)
	if err := c.journal.Record(entry); err != nil {
		c.logger.Warn("failed to record activity", zap.Error(err))
	}
}
