package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hmbass/CoinButler/internal/domain"
)

func rec(market string, action domain.TradeAction, price, qty, pnl float64) domain.TradeRecord {
	return domain.TradeRecord{
		Timestamp: time.Now(),
		Market:    market,
		Action:    action,
		Price:     price,
		Quantity:  qty,
		PnL:       pnl,
	}
}

func TestAggregatePnL(t *testing.T) {
	records := []domain.TradeRecord{
		rec("KRW-BTC", domain.ActionBuy, 100, 2, 0),
		rec("KRW-BTC", domain.ActionSell, 103, 2, 6),
		rec("KRW-ETH", domain.ActionBuy, 50, 1, 0),
		rec("KRW-ETH", domain.ActionStopLoss, 48, 1, -2),
	}

	assert.InDelta(t, 4.0, domain.AggregatePnL(records), 1e-9)
}

func TestAggregatePnL_IgnoresBuyPnL(t *testing.T) {
	// A BUY carrying a non-zero PnL field must still not contribute.
	records := []domain.TradeRecord{
		rec("KRW-BTC", domain.ActionBuy, 100, 2, 999),
	}
	assert.Zero(t, domain.AggregatePnL(records))
}

func TestAggregatePnL_Idempotent(t *testing.T) {
	records := []domain.TradeRecord{
		rec("KRW-BTC", domain.ActionBuy, 100, 2, 0),
		rec("KRW-BTC", domain.ActionSell, 103, 2, 6),
	}

	first := domain.AggregatePnL(records)
	second := domain.AggregatePnL(records)
	assert.Equal(t, first, second)
}

func TestOpenPositions(t *testing.T) {
	records := []domain.TradeRecord{
		rec("KRW-BTC", domain.ActionBuy, 100, 2, 0),
		rec("KRW-ETH", domain.ActionBuy, 50, 1, 0),
		rec("KRW-BTC", domain.ActionSell, 103, 2, 6),
		rec("KRW-XRP", domain.ActionBuy, 500, 10, 0),
	}

	open := domain.OpenPositions(records)
	assert.Len(t, open, 2)

	eth, ok := open["KRW-ETH"]
	assert.True(t, ok)
	assert.Equal(t, 50.0, eth.EntryPrice)
	assert.Equal(t, 1.0, eth.Quantity)

	_, ok = open["KRW-BTC"]
	assert.False(t, ok, "closed position must not survive replay")

	for _, p := range open {
		assert.True(t, p.Valid())
	}
}

func TestOpenPositions_ReopenAfterClose(t *testing.T) {
	records := []domain.TradeRecord{
		rec("KRW-BTC", domain.ActionBuy, 100, 2, 0),
		rec("KRW-BTC", domain.ActionStopLoss, 98, 2, -4),
		rec("KRW-BTC", domain.ActionBuy, 95, 3, 0),
	}

	open := domain.OpenPositions(records)
	assert.Len(t, open, 1)
	assert.Equal(t, 95.0, open["KRW-BTC"].EntryPrice)
	assert.Equal(t, 3.0, open["KRW-BTC"].Quantity)
}

func TestPositionProfitRate(t *testing.T) {
	p := domain.Position{Market: "KRW-BTC", EntryPrice: 100, Quantity: 2}

	assert.InDelta(t, 0.03, p.ProfitRate(103), 1e-9)
	assert.InDelta(t, -0.02, p.ProfitRate(98), 1e-9)
	assert.InDelta(t, 6.0, p.RealizedPnL(103), 1e-9)
	assert.InDelta(t, -4.0, p.RealizedPnL(98), 1e-9)
}
