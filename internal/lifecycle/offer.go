package lifecycle

import (
	"context"
	"fmt"
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

var (
	// ErrInvalidInput marks input rejected before any remote call. It never
	// produces a Failed state: the action simply is not dispatched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy marks a re-entrant dispatch while a step is pending. Exactly
	// one remote call per workflow instance may be outstanding.
	ErrBusy = errors.New("workflow step already pending")

	// ErrNoSession marks a dispatch without a connected signing identity.
	ErrNoSession = errors.New("no active session")
)

type offerGateway interface {
	Approve(ctx context.Context, asset domain.Asset, spender string, amount *big.Int) (gateway.TxReceipt, error)
	CreateSale(ctx context.Context, asset domain.Asset, amount, price *big.Int) (gateway.TxReceipt, error)
}

type recorder interface {
	Record(entry journal.Entry) error
}

// OfferController drives the two-phase sell workflow: approve the escrow's
// allowance, then create the sale. The approve step must settle before the
// create step is dispatched; skipping straight to create is allowed and
// surfaces the contract's own allowance revert, remapped to a usable hint.
type OfferController struct {
	gw         offerGateway
	session    *session.Session
	asset      domain.Asset
	escrow     string
	invalidate func()
	journal    recorder
	logger     *zap.Logger

	mu    sync.Mutex
	state State
}

// NewOfferController wires the sell workflow for one asset. invalidate is
// called after a successful create so the listing cache picks the new sale up
// on its next tick; it must not block.
func NewOfferController(gw offerGateway, sess *session.Session, asset domain.Asset, escrow string,
	invalidate func(), jrnl recorder, logger *zap.Logger) *OfferController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if invalidate == nil {
		invalidate = func() {}
	}
	return &OfferController{
		gw:         gw,
		session:    sess,
		asset:      asset,
		escrow:     escrow,
		invalidate: invalidate,
		journal:    jrnl,
		logger:     logger.With(zap.String("workflow", "offer"), zap.String("asset", asset.Symbol)),
	}
}

// State returns the workflow's current state.
func (c *OfferController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset returns a terminal workflow to Idle so a new instance can start.
func (c *OfferController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Pending() {
		c.state = State{}
	}
}

// Approve grants the escrow an allowance over amount tokens and waits for the
// transaction to settle.
func (c *OfferController) Approve(ctx context.Context, amount string) error {
	raw, err := c.parsePositive(amount)
	if err != nil {
		return err
	}

	account, guard, err := c.begin(PhaseApproving,
		fmt.Sprintf("Approving marketplace to spend your %s...", c.asset.Symbol))
	if err != nil {
		return err
	}

	receipt, err := c.gw.Approve(ctx, c.asset, c.escrow, raw)
	if err != nil {
		c.settle(guard, State{Phase: PhaseFailed, Message: "Approval failed: " + humanize(err)})
		c.record(account, journal.Entry{Kind: "approve", Amount: amount, Outcome: "failed", Message: humanize(err)})
		return errors.Wrap(err, "approve")
	}

	c.settle(guard, State{Phase: PhaseApproved, Message: "Approval confirmed. You can now create the sale."})
	c.record(account, journal.Entry{Kind: "approve", Amount: amount, TxHash: receipt.Hash, Outcome: "confirmed"})

	c.logger.Info("allowance approved",
		zap.String("amount", amount),
		zap.String("tx", receipt.Hash))
	return nil
}

// CreateSale lists amount tokens at the given total price.
func (c *OfferController) CreateSale(ctx context.Context, amount, price string) error {
	rawAmount, err := c.parsePositive(amount)
	if err != nil {
		return err
	}
	rawPrice, err := c.parsePositive(price)
	if err != nil {
		return err
	}

	account, guard, err := c.begin(PhaseCreatingSale, "Creating sale on the ledger...")
	if err != nil {
		return err
	}

	receipt, err := c.gw.CreateSale(ctx, c.asset, rawAmount, rawPrice)
	if err != nil {
		msg := "Sale creation failed: " + humanize(err)
		if gateway.IsAllowanceRevert(err) {
			msg = "Sale creation failed: insufficient allowance. Approve the marketplace first."
		}
		c.settle(guard, State{Phase: PhaseFailed, Message: msg})
		c.record(account, journal.Entry{Kind: "create_sale", Amount: amount, Price: price, Outcome: "failed", Message: msg})
		return errors.Wrap(err, "create sale")
	}

	c.settle(guard, State{Phase: PhaseCreated, Message: "Sale created successfully!"})
	c.record(account, journal.Entry{Kind: "create_sale", Amount: amount, Price: price, TxHash: receipt.Hash, Outcome: "confirmed"})
	c.invalidate()

	c.logger.Info("sale created",
		zap.String("amount", amount),
		zap.String("price", price),
		zap.String("tx", receipt.Hash))
	return nil
}

// parsePositive converts user input into smallest units, rejecting zero along
// with everything ParseUnits rejects.
func (c *OfferController) parsePositive(s string) (*big.Int, error) {
	raw, err := domain.ParseUnits(s, c.asset.Decimals)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	if raw.Sign() == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "amount must be positive")
	}
	return raw, nil
}

// begin transitions into a pending phase, refusing re-entrant dispatch and
// capturing the session guard checked on settlement.
func (c *OfferController) begin(phase Phase, message string) (domain.Account, session.Guard, error) {
	account, ok := c.session.Account()
	if !ok {
		return "", session.Guard{}, ErrNoSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Pending() {
		return "", session.Guard{}, ErrBusy
	}
	c.state = State{Phase: phase, Message: message}
	return account, c.session.Guard(), nil
}

// settle applies a transition unless the session changed underneath the
// in-flight call, in which case the result is discarded.
func (c *OfferController) settle(guard session.Guard, next State) {
	if !guard.Valid() {
		c.logger.Debug("discarding workflow result, session ended",
			zap.String("phase", next.Phase.String()))
		return
	}
	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
}

func (c *OfferController) record(account domain.Account, entry journal.Entry) {
	if c.journal == nil {
		return
	}
	entry.Time = time.Now()
	entry.Account = account
	entry.Asset = c.asset.Symbol
	if err := c.journal.Record(entry); err != nil {
		c.logger.Warn("failed to record activity", zap.Error(err))
	}
}
