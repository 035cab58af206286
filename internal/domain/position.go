package domain

import "time"

// Position is an open stake in a single market. A market with no Position in
// the tracker map holds nothing: there is no explicit NONE record.
type Position struct {
	Market     string
	EntryPrice float64
	Quantity   float64
	OpenedAt   time.Time
}

// ProfitRate returns the fractional gain/loss of the position at the given
// current price: (price - entry) / entry.
func (p Position) ProfitRate(price float64) float64 {
	return (price - p.EntryPrice) / p.EntryPrice
}

// RealizedPnL returns the profit realized by closing the full position at the
// given price.
func (p Position) RealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity
}

// Valid reports whether the position satisfies the open-position invariant:
// positive quantity and positive entry price.
func (p Position) Valid() bool {
	return p.Quantity > 0 && p.EntryPrice > 0
}
