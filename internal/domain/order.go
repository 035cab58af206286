package domain

import "time"

// OrderSide is the side of a limit order, using the exchange's wire values.
type OrderSide string

const (
	SideBid OrderSide = "bid" // buy
	SideAsk OrderSide = "ask" // sell
)

// Action returns the ledger action an order on this side produces when it
// confirms. Exits decide SELL vs STOP_LOSS themselves.
func (s OrderSide) String() string { return string(s) }

// OrderRequest is a limit order the trader wants placed.
type OrderRequest struct {
	Market string
	Side   OrderSide
	Price  float64
	Volume float64
}

// OrderConfirmation is the exchange's acknowledgement of a placed order.
// Only a confirmation may mutate the tracker or the ledger.
type OrderConfirmation struct {
	UUID      string
	Market    string
	Side      OrderSide
	Price     float64
	Volume    float64
	CreatedAt time.Time
}

// Balance is one currency entry from the exchange account.
type Balance struct {
	Currency    string
	Available   float64
	Locked      float64
	AvgBuyPrice float64
}
