package ports

import (
	"context"

	"github.com/hmbass/CoinButler/internal/domain"
)

// OrderExecutor places signed orders and reads the account on the exchange.
type OrderExecutor interface {
	// PlaceOrder signs and submits a limit order. A returned confirmation is
	// the only trigger that may mutate the position tracker or the ledger;
	// on error the caller must leave all state untouched.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error)

	// GetBalances returns the account balances (signed request).
	GetBalances(ctx context.Context) ([]domain.Balance, error)
}
