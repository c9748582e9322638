// Package web is the thin presentation surface over the client core: a JSON
// API for the dashboard, action endpoints for the workflows, an SSE activity
// stream and Prometheus metrics. No marketplace logic lives here.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/gridmarket/internal/domain"
	"github.com/vadiminshakov/gridmarket/internal/journal"
	"github.com/vadiminshakov/gridmarket/internal/lifecycle"
	"github.com/vadiminshakov/gridmarket/internal/session"
)

type balanceView interface {
	Balances() map[string]domain.AssetBalance
	Stale() bool
}

type listingView interface {
	Snapshot() domain.ListingSnapshot
	Stale() bool
}

type offerActions interface {
	Approve(ctx context.Context, amount string) error
	CreateSale(ctx context.Context, amount, price string) error
	State() lifecycle.State
	Reset()
}

type purchaseActions interface {
	Purchase(ctx context.Context, sale domain.SaleRecord) error
	State(id uint64) lifecycle.State
	CanPurchase(sale domain.SaleRecord, account domain.Account) bool
}

type activityReader interface {
	EntriesAfter(index uint64) ([]journal.Record, error)
}

// Deps bundles everything the server renders or drives.
type Deps struct {
	Session  *session.Session
	Balances balanceView
	Listings listingView
	Offer    offerActions
	Purchase purchaseActions
	Activity activityReader
	Metrics  http.Handler
}

// Server exposes the HTTP endpoints.
type Server struct {
	addr   string
	deps   Deps
	logger *zap.Logger
}

// NewServer creates a web server instance.
func NewServer(addr string, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{addr: addr, deps: deps, logger: logger.With(zap.String("component", "web"))}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/overview", s.handleOverview)
	mux.HandleFunc("/api/offer/approve", s.handleApprove)
	mux.HandleFunc("/api/offer/create", s.handleCreateSale)
	mux.HandleFunc("/api/offer/reset", s.handleOfferReset)
	mux.HandleFunc("/api/purchase", s.handlePurchase)
	mux.HandleFunc("/activity/stream", s.handleActivityStream)
	if s.deps.Metrics != nil {
		mux.Handle("/metrics", s.deps.Metrics)
	}

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

type balanceJSON struct {
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}

type listingJSON struct {
	ID      uint64 `json:"id"`
	Seller  string `json:"seller"`
	Amount  string `json:"amount"`
	Price   string `json:"price"`
	Own     bool   `json:"own"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type stateJSON struct {
	Phase   string `json:"phase"`
	Message string `json:"message,omitempty"`
}

type overviewJSON struct {
	Account       string        `json:"account"`
	Balances      []balanceJSON `json:"balances"`
	BalancesStale bool          `json:"balances_stale"`
	Listings      []listingJSON `json:"listings"`
	ListingsStale bool          `json:"listings_stale"`
	Offer         stateJSON     `json:"offer"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	account, _ := s.deps.Session.Account()

	balances := s.deps.Balances.Balances()
	balancesOut := make([]balanceJSON, 0, len(balances))
	for _, bal := range balances {
		balancesOut = append(balancesOut, balanceJSON{Symbol: bal.Asset.Symbol, Balance: bal.Display()})
	}
	sort.Slice(balancesOut, func(i, j int) bool { return balancesOut[i].Symbol < balancesOut[j].Symbol })

	snap := s.deps.Listings.Snapshot()
	listingsOut := make([]listingJSON, 0, len(snap.Sales))
	for _, sale := range snap.Sales {
		state := s.deps.Purchase.State(sale.ID)
		listingsOut = append(listingsOut, listingJSON{
			ID:      sale.ID,
			Seller:  sale.Seller.String(),
			Amount:  domain.FormatUnits(sale.Amount, snap.Asset.Decimals, domain.AmountDisplayPlaces),
			Price:   domain.FormatUnits(sale.Price, snap.Asset.Decimals, domain.PriceDisplayPlaces),
			Own:     !s.deps.Purchase.CanPurchase(sale, account),
			Status:  state.Phase.String(),
			Message: state.Message,
		})
	}

	offer := s.deps.Offer.State()
	writeJSON(w, http.StatusOK, overviewJSON{
		Account:       account.String(),
		Balances:      balancesOut,
		BalancesStale: s.deps.Balances.Stale(),
		Listings:      listingsOut,
		ListingsStale: s.deps.Listings.Stale(),
		Offer:         stateJSON{Phase: offer.Phase.String(), Message: offer.Message},
	})
}

type offerRequest struct {
	Amount string `json:"amount"`
	Price  string `json:"price"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	err := s.deps.Offer.Approve(r.Context(), req.Amount)
	s.respondWorkflow(w, err, s.deps.Offer.State())
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	err := s.deps.Offer.CreateSale(r.Context(), req.Amount, req.Price)
	s.respondWorkflow(w, err, s.deps.Offer.State())
}

func (s *Server) handleOfferReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.deps.Offer.Reset()
	state := s.deps.Offer.State()
	writeJSON(w, http.StatusOK, stateJSON{Phase: state.Phase.String(), Message: state.Message})
}

type purchaseRequest struct {
	ID uint64 `json:"id"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !s.decodePost(w, r, &req) {
		return
	}

	var target *domain.SaleRecord
	for _, sale := range s.deps.Listings.Snapshot().Sales {
		if sale.ID == req.ID {
			target = &sale
			break
		}
	}
	if target == nil {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}

	err := s.deps.Purchase.Purchase(r.Context(), *target)
	s.respondWorkflow(w, err, s.deps.Purchase.State(req.ID))
}

// respondWorkflow maps controller errors onto HTTP codes. A workflow that ran
// and failed is a domain outcome, reported through its state with 200.
func (s *Server) respondWorkflow(w http.ResponseWriter, err error, state lifecycle.State) {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	case errors.Is(err, lifecycle.ErrBusy):
		http.Error(w, "operation already pending", http.StatusConflict)
		return
	case errors.Is(err, lifecycle.ErrNoSession):
		http.Error(w, "no active session", http.StatusServiceUnavailable)
		return
	case errors.Is(err, lifecycle.ErrOwnListing):
		http.Error(w, "cannot purchase own listing", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, stateJSON{Phase: state.Phase.String(), Message: state.Message})
}

func (s *Server) decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
