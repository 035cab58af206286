package domain

import "time"

// TradeAction tags a ledger record with what the bot did.
type TradeAction string

const (
	ActionBuy      TradeAction = "BUY"
	ActionSell     TradeAction = "SELL"      // take-profit exit
	ActionStopLoss TradeAction = "STOP_LOSS" // stop-loss exit
)

// Closing reports whether the action realizes PnL.
func (a TradeAction) Closing() bool {
	return a == ActionSell || a == ActionStopLoss
}

// TradeRecord is one immutable ledger entry for a confirmed order. Records
// are append-only; their write order is authoritative, the timestamp is
// advisory.
type TradeRecord struct {
	Timestamp time.Time
	Market    string
	Action    TradeAction
	Price     float64
	Quantity  float64
	PnL       float64 // zero for BUY records
}

// AggregatePnL replays the given records and returns the total realized PnL.
// Pure function of its input: replaying the same records always yields the
// same sum. BUY records never contribute.
func AggregatePnL(records []TradeRecord) float64 {
	var total float64
	for _, r := range records {
		if r.Action.Closing() {
			total += r.PnL
		}
	}
	return total
}

// OpenPositions replays the records and returns the positions that are still
// open: for each market, a BUY with no later SELL/STOP_LOSS. Used to rebuild
// the tracker after a restart.
func OpenPositions(records []TradeRecord) map[string]Position {
	open := make(map[string]Position)
	for _, r := range records {
		switch {
		case r.Action == ActionBuy:
			open[r.Market] = Position{
				Market:     r.Market,
				EntryPrice: r.Price,
				Quantity:   r.Quantity,
				OpenedAt:   r.Timestamp,
			}
		case r.Action.Closing():
			delete(open, r.Market)
		}
	}
	return open
}
