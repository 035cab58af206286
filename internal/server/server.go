// Package server exposes the read-only status view: the ledger replay, the
// live position map, PnL aggregates and the account balance. It shares the
// tracker with the control loop but only ever takes read locks, so a slow
// request can never stall trading.
package server

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hmbass/CoinButler/internal/domain"
	"github.com/hmbass/CoinButler/internal/ports"
	"github.com/hmbass/CoinButler/internal/tracker"
)

const balanceTimeout = 5 * time.Second

// Server serves the status endpoints.
type Server struct {
	engine   *gin.Engine
	tracker  *tracker.Tracker
	executor ports.OrderExecutor
	addr     string
}

// Snapshot is the structured status payload served at /data.
type Snapshot struct {
	Trades           []TradeView    `json:"trades"`
	Positions        []PositionView `json:"positions"`
	TotalPnL         float64        `json:"total_pnl"`
	DailyPnL         float64        `json:"daily_pnl"`
	BalanceAvailable bool           `json:"balance_available"`
	Balances         []BalanceView  `json:"balances"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// TradeView is one ledger record in the snapshot.
type TradeView struct {
	Timestamp time.Time `json:"timestamp"`
	Market    string    `json:"market"`
	Action    string    `json:"action"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	PnL       float64   `json:"pnl"`
}

// PositionView is one open position in the snapshot.
type PositionView struct {
	Market     string    `json:"market"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	OpenedAt   time.Time `json:"opened_at"`
}

// BalanceView is one account balance entry.
type BalanceView struct {
	Currency  string  `json:"currency"`
	Available float64 `json:"available"`
	Locked    float64 `json:"locked"`
}

// New wires the router. No auth: the view is read-only by construction and
// binding to a private interface is the deployment's job.
func New(trk *tracker.Tracker, executor ports.OrderExecutor, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())

	// Request logging
	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).Round(time.Millisecond),
		)
	})

	g.SetHTMLTemplate(template.Must(template.New("dashboard").Parse(dashboardHTML)))

	s := &Server{engine: g, tracker: trk, executor: executor, addr: addr}

	g.GET("/", s.dashboard)
	g.GET("/data", s.data)
	g.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("status server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// snapshot assembles the full status view. The balance fetch is best effort:
// on failure the snapshot is served anyway with balance_available=false.
func (s *Server) snapshot(ctx context.Context) (Snapshot, error) {
	records, positions, dailyPnL, err := s.tracker.View(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Trades:      make([]TradeView, 0, len(records)),
		Positions:   make([]PositionView, 0, len(positions)),
		TotalPnL:    domain.AggregatePnL(records),
		DailyPnL:    dailyPnL,
		Balances:    []BalanceView{},
		GeneratedAt: time.Now(),
	}

	for _, r := range records {
		snap.Trades = append(snap.Trades, TradeView{
			Timestamp: r.Timestamp,
			Market:    r.Market,
			Action:    string(r.Action),
			Price:     r.Price,
			Quantity:  r.Quantity,
			PnL:       r.PnL,
		})
	}

	for _, p := range positions {
		snap.Positions = append(snap.Positions, PositionView{
			Market:     p.Market,
			EntryPrice: p.EntryPrice,
			Quantity:   p.Quantity,
			OpenedAt:   p.OpenedAt,
		})
	}
	sort.Slice(snap.Positions, func(i, j int) bool {
		return snap.Positions[i].Market < snap.Positions[j].Market
	})

	bctx, cancel := context.WithTimeout(ctx, balanceTimeout)
	defer cancel()
	balances, err := s.executor.GetBalances(bctx)
	if err != nil {
		slog.Warn("balance unavailable for snapshot", "err", err)
	} else {
		snap.BalanceAvailable = true
		for _, b := range balances {
			snap.Balances = append(snap.Balances, BalanceView{
				Currency:  b.Currency,
				Available: b.Available,
				Locked:    b.Locked,
			})
		}
	}

	return snap, nil
}

func (s *Server) data(c *gin.Context) {
	snap, err := s.snapshot(c.Request.Context())
	if err != nil {
		slog.Error("snapshot failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) dashboard(c *gin.Context) {
	snap, err := s.snapshot(c.Request.Context())
	if err != nil {
		slog.Error("snapshot failed", "err", err)
		c.String(http.StatusInternalServerError, "snapshot failed")
		return
	}
	c.HTML(http.StatusOK, "dashboard", snap)
}
