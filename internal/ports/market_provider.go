package ports

import "context"

// MarketProvider reads market data from the exchange.
type MarketProvider interface {
	// ListMarkets returns the candidate markets to monitor, quote-currency
	// filtered and capped at the configured maximum. Iteration order is
	// stable: the trader walks the same sequence every tick.
	ListMarkets(ctx context.Context) ([]string, error)

	// GetPrice returns the latest trade price for a market. Failures are
	// typed: domain.IsTransient(err) means the next tick may succeed,
	// domain.IsPermanent(err) means the market or request is bad.
	GetPrice(ctx context.Context, market string) (float64, error)
}
