package upbit

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hmbass/CoinButler/internal/domain"
)

// quotePrefix filters the market list down to KRW-quoted pairs.
const quotePrefix = "KRW-"

// ListMarkets returns the first maxMarkets KRW markets from the exchange's
// market list, in the order the exchange returns them. Known approximation:
// the list endpoint is not volume-sorted, so this is "first N" rather than
// "top N by volume".
func (c *Client) ListMarkets(ctx context.Context) ([]string, error) {
	const op = "upbit.ListMarkets"

	var all []marketInfo
	if err := c.get(ctx, op, "/v1/market/all", nil, &all); err != nil {
		return nil, err
	}

	markets := make([]string, 0, c.maxMarkets)
	for _, m := range all {
		if len(m.Market) < len(quotePrefix) || m.Market[:len(quotePrefix)] != quotePrefix {
			continue
		}
		markets = append(markets, m.Market)
		if len(markets) >= c.maxMarkets {
			break
		}
	}
	return markets, nil
}

// GetPrice returns the latest trade price for one market.
func (c *Client) GetPrice(ctx context.Context, market string) (float64, error) {
	const op = "upbit.GetPrice"

	query := url.Values{"markets": {market}}
	var tickers []ticker
	if err := c.get(ctx, op, "/v1/ticker", query, &tickers); err != nil {
		return 0, err
	}
	if len(tickers) == 0 {
		return 0, permanentf(op, "no ticker data for %s", market)
	}
	if tickers[0].TradePrice <= 0 {
		return 0, permanentf(op, "non-positive price %.8f for %s", tickers[0].TradePrice, market)
	}
	return tickers[0].TradePrice, nil
}

func permanentf(op, format string, args ...any) error {
	return domain.Permanent(op, fmt.Errorf(format, args...))
}
