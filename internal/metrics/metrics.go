// Package metrics registers the Prometheus series the bot updates while
// running. Served by the status server at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Ticks counts control loop ticks by outcome: ok | window | risk_limit |
	// error.
	Ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_ticks_total",
			Help: "Control loop ticks by outcome",
		},
		[]string{"outcome"},
	)

	// Orders counts confirmed orders by side.
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Confirmed orders by side",
		},
		[]string{"side"},
	)

	// OrderFailures counts rejected or failed order placements.
	OrderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_order_failures_total",
			Help: "Order placements that returned an error",
		},
	)

	// PriceFailures counts price fetches skipped on remote failure, split
	// by failure kind.
	PriceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_price_failures_total",
			Help: "Price fetch failures by kind",
		},
		[]string{"kind"},
	)

	// NotifyFailures counts dropped notifications. Never affects trading.
	NotifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_notify_failures_total",
			Help: "Notifications that could not be delivered",
		},
	)

	// DailyPnL mirrors the tracker's daily accumulator.
	DailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_daily_pnl_krw",
			Help: "Realized PnL of the current accounting day in KRW",
		},
	)

	// OpenPositions is the number of markets currently holding a position.
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_open_positions",
			Help: "Markets with an open position",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Ticks,
		Orders,
		OrderFailures,
		PriceFailures,
		NotifyFailures,
		DailyPnL,
		OpenPositions,
	)
}
