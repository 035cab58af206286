// Package tracker owns the per-market position map and the daily PnL
// accumulator. It is the single source of truth the control loop mutates;
// the status server only ever reads snapshots.
//
// Concurrency contract: one writer (the trader goroutine), many readers.
// Every mutation appends its ledger record and updates the in-memory state
// inside one critical section, so a reader never observes a position change
// without the matching ledger record or vice versa.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hmbass/CoinButler/internal/domain"
	"github.com/hmbass/CoinButler/internal/ports"
)

var (
	// ErrNoPosition is a logic violation: closing a market that holds
	// nothing. The control loop never does this when correct.
	ErrNoPosition = errors.New("tracker: no open position")
	// ErrPositionOpen is a logic violation: opening a market that already
	// holds a position.
	ErrPositionOpen = errors.New("tracker: position already open")
)

// Tracker holds the live position map and the daily accumulator.
type Tracker struct {
	mu        sync.RWMutex
	ledger    ports.Ledger
	positions map[string]domain.Position
	dailyPnL  float64
	day       time.Time // local midnight anchoring the accounting day
}

// New creates an empty tracker writing through to the given ledger.
func New(ledger ports.Ledger, now time.Time) *Tracker {
	return &Tracker{
		ledger:    ledger,
		positions: make(map[string]domain.Position),
		day:       midnight(now),
	}
}

// Rebuild replays the ledger and reconstructs the open positions (last
// unmatched BUY per market) and today's realized PnL. Called once at startup
// before the trader runs.
func (t *Tracker) Rebuild(ctx context.Context) error {
	records, err := t.ledger.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("tracker.Rebuild: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.positions = domain.OpenPositions(records)
	t.dailyPnL = 0
	for _, r := range records {
		if r.Action.Closing() && !r.Timestamp.Before(t.day) {
			t.dailyPnL += r.PnL
		}
	}
	return nil
}

// Get returns the open position for a market, if any.
func (t *Tracker) Get(market string) (domain.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.positions[market]
	return p, ok
}

// Open records a confirmed entry: appends the BUY ledger record and inserts
// the position atomically. The ledger write happens first; if it fails no
// state changes.
func (t *Tracker) Open(ctx context.Context, market string, price, quantity float64, ts time.Time) error {
	if price <= 0 || quantity <= 0 {
		return fmt.Errorf("tracker.Open %s: invalid fill price=%v quantity=%v", market, price, quantity)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.positions[market]; ok {
		return fmt.Errorf("tracker.Open %s: %w", market, ErrPositionOpen)
	}

	rec := domain.TradeRecord{
		Timestamp: ts,
		Market:    market,
		Action:    domain.ActionBuy,
		Price:     price,
		Quantity:  quantity,
	}
	if err := t.ledger.Append(ctx, rec); err != nil {
		return fmt.Errorf("tracker.Open %s: append: %w", market, err)
	}

	t.positions[market] = domain.Position{
		Market:     market,
		EntryPrice: price,
		Quantity:   quantity,
		OpenedAt:   ts,
	}
	return nil
}

// CloseAt records a confirmed exit at the given price: appends the SELL or
// STOP_LOSS record, adds the realized PnL to the daily accumulator and
// removes the position, all in one critical section. Returns the realized
// PnL.
func (t *Tracker) CloseAt(ctx context.Context, market string, price float64, action domain.TradeAction, ts time.Time) (float64, error) {
	if !action.Closing() {
		return 0, fmt.Errorf("tracker.CloseAt %s: action %s does not close", market, action)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positions[market]
	if !ok {
		return 0, fmt.Errorf("tracker.CloseAt %s: %w", market, ErrNoPosition)
	}

	pnl := pos.RealizedPnL(price)
	rec := domain.TradeRecord{
		Timestamp: ts,
		Market:    market,
		Action:    action,
		Price:     price,
		Quantity:  pos.Quantity,
		PnL:       pnl,
	}
	if err := t.ledger.Append(ctx, rec); err != nil {
		return 0, fmt.Errorf("tracker.CloseAt %s: append: %w", market, err)
	}

	delete(t.positions, market)
	t.dailyPnL += pnl
	return pnl, nil
}

// DailyPnL returns today's realized PnL.
func (t *Tracker) DailyPnL() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dailyPnL
}

// LimitBreached is the risk gate predicate: true once today's realized PnL
// has fallen to the (negative) limit.
func (t *Tracker) LimitBreached(limit float64) bool {
	return t.DailyPnL() <= limit
}

// ResetDaily zeroes the daily accumulator.
func (t *Tracker) ResetDaily() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dailyPnL = 0
}

// RollDay resets the accumulator when now has crossed the local-midnight
// boundary. Returns true if a rollover happened.
func (t *Tracker) RollDay(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := midnight(now)
	if day.Equal(t.day) {
		return false
	}
	t.day = day
	t.dailyPnL = 0
	return true
}

// Snapshot returns a copy of the position map plus the daily PnL, consistent
// at one instant.
func (t *Tracker) Snapshot() (map[string]domain.Position, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	positions := make(map[string]domain.Position, len(t.positions))
	for k, v := range t.positions {
		positions[k] = v
	}
	return positions, t.dailyPnL
}

// View returns the full ledger replay together with the position map and
// daily PnL, all read under one lock acquisition: the history can never be
// ahead of or behind the positions it is paired with.
func (t *Tracker) View(ctx context.Context) ([]domain.TradeRecord, map[string]domain.Position, float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	records, err := t.ledger.ReadAll(ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("tracker.View: %w", err)
	}

	positions := make(map[string]domain.Position, len(t.positions))
	for k, v := range t.positions {
		positions[k] = v
	}
	return records, positions, t.dailyPnL, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
