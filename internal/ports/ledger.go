package ports

import (
	"context"

	"github.com/hmbass/CoinButler/internal/domain"
)

// Ledger is the durable append-only record of every confirmed trade. It is
// the bot's only persistent state: the position tracker is rebuilt from it
// on startup.
type Ledger interface {
	// Append durably writes one record. Atomic with respect to concurrent
	// ReadAll calls: a reader never observes a partial record.
	Append(ctx context.Context, rec domain.TradeRecord) error

	// ReadAll replays every record in write order.
	ReadAll(ctx context.Context) ([]domain.TradeRecord, error)

	// Close releases the backing store.
	Close() error
}
