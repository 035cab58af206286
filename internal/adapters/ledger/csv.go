package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hmbass/CoinButler/internal/domain"
)

var csvHeader = []string{"datetime", "market", "action", "price", "quantity", "pnl"}

const csvTimeLayout = "2006-01-02 15:04:05"

// CSV is a file-backed ports.Ledger: one record per line, header written
// when the file is first created, appends survive restarts. A single mutex
// covers appends and replays, so a reader never sees a half-written row.
type CSV struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *csv.Writer
}

// NewCSV opens (or creates) the ledger file at path.
func NewCSV(path string) (*CSV, error) {
	info, err := os.Stat(path)
	fresh := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ledger.NewCSV: open %q: %w", path, err)
	}

	l := &CSV{path: path, file: f, w: csv.NewWriter(f)}

	if fresh {
		if err := l.w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("ledger.NewCSV: write header: %w", err)
		}
		l.w.Flush()
		if err := l.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("ledger.NewCSV: flush header: %w", err)
		}
	}
	return l, nil
}

// Append writes one record and flushes it to the file.
func (l *CSV) Append(_ context.Context, rec domain.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := []string{
		rec.Timestamp.Format(csvTimeLayout),
		rec.Market,
		string(rec.Action),
		formatFloat(rec.Price),
		formatFloat(rec.Quantity),
		formatFloat(rec.PnL),
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("ledger.CSV.Append: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("ledger.CSV.Append: flush: %w", err)
	}
	return nil
}

// ReadAll replays the whole file in write order.
func (l *CSV) ReadAll(_ context.Context) ([]domain.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger.CSV.ReadAll: open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	var records []domain.TradeRecord
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ledger.CSV.ReadAll: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == csvHeader[0] {
				continue
			}
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("ledger.CSV.ReadAll: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close flushes and closes the backing file.
func (l *CSV) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return fmt.Errorf("ledger.CSV.Close: flush: %w", err)
	}
	return l.file.Close()
}

func parseRow(row []string) (domain.TradeRecord, error) {
	if len(row) != len(csvHeader) {
		return domain.TradeRecord{}, fmt.Errorf("malformed row: %d fields", len(row))
	}
	ts, err := time.ParseInLocation(csvTimeLayout, row[0], time.Local)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}
	price, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("bad price %q: %w", row[3], err)
	}
	qty, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("bad quantity %q: %w", row[4], err)
	}
	pnl, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("bad pnl %q: %w", row[5], err)
	}
	return domain.TradeRecord{
		Timestamp: ts,
		Market:    row[1],
		Action:    domain.TradeAction(row[2]),
		Price:     price,
		Quantity:  qty,
		PnL:       pnl,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
