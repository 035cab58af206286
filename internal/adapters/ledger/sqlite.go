package ledger

// sqlite.go — alternate ledger backend on SQLite (pure Go, no CGo).
//
// Same contract as the CSV ledger: append-only, full replay in write order.
// The rowid gives the authoritative ordering; the timestamp column is
// advisory.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hmbass/CoinButler/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    ts        DATETIME NOT NULL,
    market    TEXT     NOT NULL,
    action    TEXT     NOT NULL,
    price     REAL     NOT NULL,
    quantity  REAL     NOT NULL,
    pnl       REAL     NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_market ON trades(market);
`

// SQLite implements ports.Ledger on a SQLite database file (or ":memory:").
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger.NewSQLite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger.NewSQLite: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append inserts one record. The INSERT is a single transaction, so readers
// never observe a partial row.
func (l *SQLite) Append(ctx context.Context, rec domain.TradeRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO trades (ts, market, action, price, quantity, pnl)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC(), rec.Market, string(rec.Action), rec.Price, rec.Quantity, rec.PnL,
	)
	if err != nil {
		return fmt.Errorf("ledger.SQLite.Append: %w", err)
	}
	return nil
}

// ReadAll replays every record ordered by insertion.
func (l *SQLite) ReadAll(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT ts, market, action, price, quantity, pnl
		FROM trades ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ledger.SQLite.ReadAll: %w", err)
	}
	defer rows.Close()

	var records []domain.TradeRecord
	for rows.Next() {
		var (
			rec    domain.TradeRecord
			ts     time.Time
			action string
		)
		if err := rows.Scan(&ts, &rec.Market, &action, &rec.Price, &rec.Quantity, &rec.PnL); err != nil {
			return nil, fmt.Errorf("ledger.SQLite.ReadAll: scan: %w", err)
		}
		rec.Timestamp = ts
		rec.Action = domain.TradeAction(action)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger.SQLite.ReadAll: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (l *SQLite) Close() error {
	return l.db.Close()
}
