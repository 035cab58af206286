package upbit

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hmbass/CoinButler/internal/domain"
)

// PlaceOrder submits a signed limit order. Success is HTTP 201 with an order
// payload; anything else leaves the caller's state untouched. No automatic
// retry: a timed-out POST may still have been accepted upstream, so the
// decision is left to the next tick.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error) {
	const op = "upbit.PlaceOrder"

	form := url.Values{
		"market":   {req.Market},
		"side":     {string(req.Side)},
		"price":    {formatNum(req.Price)},
		"ord_type": {"limit"},
		"volume":   {formatNum(req.Volume)},
	}

	var resp orderResponse
	if err := c.postSigned(ctx, op, "/v1/orders", form, &resp, http.StatusCreated); err != nil {
		return domain.OrderConfirmation{}, err
	}

	createdAt, _ := time.Parse(time.RFC3339, resp.CreatedAt)
	return domain.OrderConfirmation{
		UUID:      resp.UUID,
		Market:    resp.Market,
		Side:      domain.OrderSide(resp.Side),
		Price:     parseNum(resp.Price, req.Price),
		Volume:    parseNum(resp.Volume, req.Volume),
		CreatedAt: createdAt,
	}, nil
}

// GetBalances returns the account balances via the signed accounts endpoint.
func (c *Client) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	const op = "upbit.GetBalances"

	var accounts []account
	if err := c.getSigned(ctx, op, "/v1/accounts", nil, &accounts); err != nil {
		return nil, err
	}

	balances := make([]domain.Balance, 0, len(accounts))
	for _, a := range accounts {
		balances = append(balances, domain.Balance{
			Currency:    a.Currency,
			Available:   parseNum(a.Balance, 0),
			Locked:      parseNum(a.Locked, 0),
			AvgBuyPrice: parseNum(a.AvgBuyPrice, 0),
		})
	}
	return balances, nil
}

// formatNum renders a price/volume without exponent notation, which the
// exchange rejects.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNum(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}
