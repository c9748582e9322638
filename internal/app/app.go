// Package app assembles the marketplace client: gateway, caches, pollers,
// workflow controllers and the web surface, all tied to one session.
package app

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/gridmarket/config"
	"github.com/vadiminshakov/gridmarket/internal/cache"
	"github.com/vadiminshakov/gridmarket/internal/domain"
	"github.com/vadiminshakov/gridmarket/internal/gateway"
	"github.com/vadiminshakov/gridmarket/internal/journal"
	"github.com/vadiminshakov/gridmarket/internal/lifecycle"
	"github.com/vadiminshakov/gridmarket/internal/metrics"
	"github.com/vadiminshakov/gridmarket/internal/poller"
	"github.com/vadiminshakov/gridmarket/internal/session"
	"github.com/vadiminshakov/gridmarket/internal/web"
)

// App owns every long-lived component of the client.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	session *session.Session

	balances *cache.BalanceCache
	listings *cache.ListingCache

	offer    *lifecycle.OfferController
	purchase *lifecycle.PurchaseController

	balancePoller *poller.Poller
	listingPoller *poller.Poller

	journal *journal.Journal
	metrics *metrics.Registry
	web     *web.Server
}

// New dials the ledger and wires the full component graph. The session is
// activated for the gateway's signing account.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	assets := make([]domain.Asset, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		assets = append(assets, domain.Asset{Symbol: a.Symbol, Address: a.Address, Decimals: a.Decimals})
	}

	saleAssetCfg := cfg.FindAsset(cfg.SaleAsset)
	if saleAssetCfg == nil {
		return nil, errors.Errorf("sale asset %q is not configured", cfg.SaleAsset)
	}
	saleAsset := domain.Asset{Symbol: saleAssetCfg.Symbol, Address: saleAssetCfg.Address, Decimals: saleAssetCfg.Decimals}

	gw, err := gateway.NewEthGateway(ctx, gateway.EthConfig{
		RPCURL:             cfg.RPCURL,
		PrivateKeyHex:      cfg.PrivateKey,
		MarketplaceAddress: cfg.Marketplace,
		Assets:             assets,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create ledger gateway")
	}

	sess := session.New()
	sess.Begin(gw.Account())

	jrnl, err := journal.New(cfg.JournalDir)
	if err != nil {
		return nil, errors.Wrap(err, "open activity journal")
	}

	reg := metrics.New()

	listings := cache.NewListingCache(gw, saleAsset, logger)
	balances := cache.NewBalanceCache(gw, gw.Account(), assets, logger)

	listingPoller := poller.New("listings", cfg.ListingPollInterval, func(ctx context.Context) error {
		if err := listings.Refresh(ctx); err != nil {
			reg.IncRefresh("listings", "error")
			return err
		}
		reg.IncRefresh("listings", "ok")
		reg.SetActiveListings(len(listings.Snapshot().Sales))
		return nil
	}, logger)

	balancePoller := poller.New("balances", cfg.BalancePollInterval, func(ctx context.Context) error {
		if err := balances.Refresh(ctx); err != nil {
			reg.IncRefresh("balances", "error")
			return err
		}
		reg.IncRefresh("balances", "ok")
		return nil
	}, logger)

	rec := &activityRecorder{journal: jrnl, metrics: reg}
	offer := lifecycle.NewOfferController(gw, sess, saleAsset, cfg.Marketplace, listingPoller.Kick, rec, logger)
	purchase := lifecycle.NewPurchaseController(gw, sess, saleAsset, listingPoller.Kick, rec, logger)

	a := &App{
		cfg:           cfg,
		logger:        logger,
		session:       sess,
		balances:      balances,
		listings:      listings,
		offer:         offer,
		purchase:      purchase,
		balancePoller: balancePoller,
		listingPoller: listingPoller,
		journal:       jrnl,
		metrics:       reg,
	}
	a.web = web.NewServer(cfg.ListenAddr, web.Deps{
		Session:  sess,
		Balances: balances,
		Listings: listings,
		Offer:    offer,
		Purchase: purchase,
		Activity: jrnl,
		Metrics:  reg.Handler(),
	}, logger)

	return a, nil
}

// Run drives the pollers and the web server until ctx is cancelled, then
// tears the session down so in-flight results are discarded.
func (a *App) Run(ctx context.Context) error {
	defer a.teardown()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(a.balancePoller.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(a.listingPoller.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(a.web.Start(ctx)) })

	a.logger.Info("marketplace client running",
		zap.String("listen", a.cfg.ListenAddr),
		zap.String("sale_asset", a.cfg.SaleAsset))

	return g.Wait()
}

func (a *App) teardown() {
	a.session.End()
	if err := a.journal.Close(); err != nil {
		a.logger.Warn("failed to close activity journal", zap.Error(err))
	}
	a.logger.Info("marketplace client stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// activityRecorder feeds terminal workflow outcomes to both the journal and
// the metrics registry.
type activityRecorder struct {
	journal *journal.Journal
	metrics *metrics.Registry
}

func (r *activityRecorder) Record(entry journal.Entry) error {
	r.metrics.IncWorkflow(entry.Kind, entry.Outcome)
	return r.journal.Record(entry)
}
