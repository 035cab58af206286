// Package trader runs the control loop: every tick it walks the candidate
// markets, closes positions that hit the take-profit or stop-loss threshold
// and opens new ones when the entry strategy fires, recording every
// confirmed order through the tracker.
package trader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hmbass/CoinButler/internal/domain"
	"github.com/hmbass/CoinButler/internal/metrics"
	"github.com/hmbass/CoinButler/internal/ports"
	"github.com/hmbass/CoinButler/internal/strategy"
	"github.com/hmbass/CoinButler/internal/tracker"
)

// fallbackMarkets keeps the bot alive when the market list endpoint is down
// at startup.
var fallbackMarkets = []string{"KRW-BTC", "KRW-ETH", "KRW-XRP", "KRW-ADA", "KRW-DOGE"}

// Config holds the loop parameters.
type Config struct {
	TradeAmount    float64       // notional per entry, KRW
	TakeProfit     float64       // fractional threshold, e.g. 0.03
	StopLoss       float64       // fractional threshold, e.g. -0.02
	Interval       time.Duration // tick period
	DailyLossLimit float64       // signed KRW; gate trips at or below
	Windows        domain.Windows
	OrderTimeout   time.Duration // hard bound on one order call
	TickBackoff    time.Duration // pause after a panicking tick
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		TradeAmount:    50000,
		TakeProfit:     0.03,
		StopLoss:       -0.02,
		Interval:       60 * time.Second,
		DailyLossLimit: -50000,
		Windows:        domain.Windows{{Start: 9, End: 11}, {Start: 21, End: 24}},
		OrderTimeout:   15 * time.Second,
		TickBackoff:    10 * time.Second,
	}
}

// Trader is the control loop.
type Trader struct {
	cfg        Config
	marketData ports.MarketProvider
	executor   ports.OrderExecutor
	notifier   ports.Notifier
	tracker    *tracker.Tracker
	entry      strategy.Entry

	markets     []string
	riskAlerted bool
}

// New creates a Trader with all dependencies injected.
func New(
	cfg Config,
	marketData ports.MarketProvider,
	executor ports.OrderExecutor,
	notifier ports.Notifier,
	trk *tracker.Tracker,
	entry strategy.Entry,
) *Trader {
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = 15 * time.Second
	}
	if cfg.TickBackoff <= 0 {
		cfg.TickBackoff = 10 * time.Second
	}
	return &Trader{
		cfg:        cfg,
		marketData: marketData,
		executor:   executor,
		notifier:   notifier,
		tracker:    trk,
		entry:      entry,
	}
}

// Run executes the loop until the context is cancelled. The market list is
// fetched once at startup and iterated in the same order every tick.
func (t *Trader) Run(ctx context.Context) error {
	t.loadMarkets(ctx)

	slog.Info("trader starting",
		"markets", len(t.markets),
		"interval", t.cfg.Interval,
		"take_profit", t.cfg.TakeProfit,
		"stop_loss", t.cfg.StopLoss,
		"daily_loss_limit", t.cfg.DailyLossLimit,
	)
	t.notify(ctx, fmt.Sprintf("🤖 trading bot started — monitoring %d markets", len(t.markets)))

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	t.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("trader stopped")
			return nil
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// RunOnce executes exactly one tick. Used by the -once CLI mode.
func (t *Trader) RunOnce(ctx context.Context) {
	t.loadMarkets(ctx)
	t.tick(ctx)
}

// loadMarkets fetches the candidate list, falling back to a fixed set when
// the endpoint is unavailable.
func (t *Trader) loadMarkets(ctx context.Context) {
	if len(t.markets) > 0 {
		return
	}
	markets, err := t.marketData.ListMarkets(ctx)
	if err != nil || len(markets) == 0 {
		slog.Warn("market list unavailable, using fallback set", "err", err)
		markets = fallbackMarkets
	}
	t.markets = markets
	slog.Info("monitoring markets", "markets", t.markets)
}

// tick runs one full evaluation cycle. A panic anywhere inside is confined
// to this tick: logged, alerted, followed by a bounded pause.
func (t *Trader) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Ticks.WithLabelValues("error").Inc()
			slog.Error("tick failed", "panic", r)
			t.notify(ctx, fmt.Sprintf("❌ bot error: %v", r))
			select {
			case <-time.After(t.cfg.TickBackoff):
			case <-ctx.Done():
			}
		}
	}()

	now := time.Now()

	if t.tracker.RollDay(now) {
		slog.Info("daily boundary crossed, accumulator reset")
		t.riskAlerted = false
	}
	metrics.DailyPnL.Set(t.tracker.DailyPnL())

	if !t.cfg.Windows.Contains(now) {
		metrics.Ticks.WithLabelValues("window").Inc()
		slog.Debug("outside monitoring hours", "hour", now.Hour())
		return
	}

	// Reference policy: a tripped gate skips the whole tick, exits
	// included. Open positions stay frozen until the next daily reset.
	if t.tracker.LimitBreached(t.cfg.DailyLossLimit) {
		metrics.Ticks.WithLabelValues("risk_limit").Inc()
		slog.Warn("daily loss limit reached, tick skipped",
			"daily_pnl", t.tracker.DailyPnL(),
			"limit", t.cfg.DailyLossLimit,
		)
		if !t.riskAlerted {
			t.notify(ctx, fmt.Sprintf("⚠️ daily loss limit reached: %.0f KRW — trading suspended", t.tracker.DailyPnL()))
			t.riskAlerted = true
		}
		return
	}

	for _, market := range t.markets {
		if ctx.Err() != nil {
			return
		}

		price, err := t.marketData.GetPrice(ctx, market)
		if err != nil {
			kind := "transient"
			if domain.IsPermanent(err) {
				kind = "permanent"
				slog.Warn("price fetch rejected", "market", market, "err", err)
			} else {
				slog.Debug("price fetch failed", "market", market, "err", err)
			}
			metrics.PriceFailures.WithLabelValues(kind).Inc()
			continue
		}

		if pos, ok := t.tracker.Get(market); ok {
			t.evaluateExit(ctx, market, pos, price, now)
		} else {
			t.evaluateEntry(ctx, market, price, now)
		}
	}

	metrics.Ticks.WithLabelValues("ok").Inc()
	metrics.DailyPnL.Set(t.tracker.DailyPnL())
}

// evaluateExit closes the position when the profit rate crosses either
// threshold. A failed order leaves the position open for the next tick.
func (t *Trader) evaluateExit(ctx context.Context, market string, pos domain.Position, price float64, now time.Time) {
	rate := pos.ProfitRate(price)
	if rate < t.cfg.TakeProfit && rate > t.cfg.StopLoss {
		return
	}

	action := domain.ActionSell
	if rate <= t.cfg.StopLoss {
		action = domain.ActionStopLoss
	}

	_, err := t.placeOrder(ctx, domain.OrderRequest{
		Market: market,
		Side:   domain.SideAsk,
		Price:  price,
		Volume: pos.Quantity,
	})
	if err != nil {
		metrics.OrderFailures.Inc()
		slog.Warn("exit order failed, position stays open",
			"market", market, "action", action, "err", err)
		return
	}

	pnl, err := t.tracker.CloseAt(ctx, market, price, action, now)
	if err != nil {
		// Order confirmed but the record could not be written; the
		// position stays open and the exit re-fires next tick.
		slog.Error("close after confirmed order failed", "market", market, "err", err)
		return
	}

	metrics.Orders.WithLabelValues(string(domain.SideAsk)).Inc()
	metrics.OpenPositions.Dec()

	label := "take profit"
	if action == domain.ActionStopLoss {
		label = "stop loss"
	}
	slog.Info("position closed",
		"market", market,
		"action", action,
		"entry", pos.EntryPrice,
		"exit", price,
		"profit_rate", fmt.Sprintf("%.2f%%", rate*100),
		"pnl", pnl,
	)
	t.notify(ctx, fmt.Sprintf("💰 %s\nmarket: %s\nentry: %.2f\nexit: %.2f\nrate: %.2f%%\npnl: %.0f KRW",
		label, market, pos.EntryPrice, price, rate*100, pnl))
}

// evaluateEntry opens a position when the entry strategy fires. Quantity is
// the fixed notional divided by the current price.
func (t *Trader) evaluateEntry(ctx context.Context, market string, price float64, now time.Time) {
	if !t.entry.ShouldEnter(market, price) {
		return
	}

	quantity := t.cfg.TradeAmount / price

	_, err := t.placeOrder(ctx, domain.OrderRequest{
		Market: market,
		Side:   domain.SideBid,
		Price:  price,
		Volume: quantity,
	})
	if err != nil {
		metrics.OrderFailures.Inc()
		slog.Warn("entry order failed", "market", market, "err", err)
		return
	}

	if err := t.tracker.Open(ctx, market, price, quantity, now); err != nil {
		slog.Error("open after confirmed order failed", "market", market, "err", err)
		return
	}

	metrics.Orders.WithLabelValues(string(domain.SideBid)).Inc()
	metrics.OpenPositions.Inc()

	slog.Info("position opened", "market", market, "price", price, "quantity", quantity)
	t.notify(ctx, fmt.Sprintf("📈 entry\nmarket: %s\nprice: %.2f\nquantity: %.8f", market, price, quantity))
}

// placeOrder submits one order with a hard timeout. Once started, the call
// is detached from loop cancellation so a shutdown never abandons an
// in-flight order before its confirmation arrives; shutdown only refuses to
// start new calls.
func (t *Trader) placeOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderConfirmation{}, fmt.Errorf("trader: shutting down: %w", err)
	}
	octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.OrderTimeout)
	defer cancel()
	return t.executor.PlaceOrder(octx, req)
}

// notify delivers a best-effort alert. Failures are counted and dropped.
func (t *Trader) notify(ctx context.Context, text string) {
	if t.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := t.notifier.Notify(nctx, text); err != nil {
		metrics.NotifyFailures.Inc()
		slog.Warn("notification dropped", "err", err)
	}
}
