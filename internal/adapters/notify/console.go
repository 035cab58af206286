package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/hmbass/CoinButler/internal/domain"
)

// Console implements ports.Notifier on stdout. It is the fallback when no
// Telegram credentials are configured, and also renders ledger recaps for
// the -history CLI mode.
type Console struct {
	out io.Writer
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify prints the alert with a timestamp prefix.
func (c *Console) Notify(_ context.Context, text string) error {
	fmt.Fprintf(c.out, "[%s] %s\n", time.Now().Format("15:04:05"), text)
	return nil
}

// PrintHistory renders the full trade ledger as a table plus a PnL summary.
func (c *Console) PrintHistory(records []domain.TradeRecord) {
	if len(records) == 0 {
		fmt.Fprintln(c.out, "no trades recorded")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Market", "Action", "Price", "Quantity", "PnL")

	for i, r := range records {
		pnl := "-"
		if r.Action.Closing() {
			pnl = fmt.Sprintf("%.2f", r.PnL)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Market,
			string(r.Action),
			fmt.Sprintf("%.2f", r.Price),
			fmt.Sprintf("%.8f", r.Quantity),
			pnl,
		)
	}

	table.Render()

	open := domain.OpenPositions(records)
	fmt.Fprintf(c.out, "trades: %d | open positions: %d | realized PnL: %.2f KRW\n",
		len(records), len(open), domain.AggregatePnL(records))
}
