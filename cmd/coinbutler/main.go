package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hmbass/CoinButler/config"
	"github.com/hmbass/CoinButler/internal/adapters/ledger"
	"github.com/hmbass/CoinButler/internal/adapters/notify"
	"github.com/hmbass/CoinButler/internal/adapters/upbit"
	"github.com/hmbass/CoinButler/internal/ipcheck"
	"github.com/hmbass/CoinButler/internal/ports"
	"github.com/hmbass/CoinButler/internal/server"
	"github.com/hmbass/CoinButler/internal/strategy"
	"github.com/hmbass/CoinButler/internal/tracker"
	"github.com/hmbass/CoinButler/internal/trader"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one tick and exit")
	history := flag.Bool("history", false, "print the trade ledger and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("coinbutler starting",
		"config", *configPath,
		"interval", cfg.Interval(),
		"ledger", cfg.Ledger.Type,
		"once", *once,
	)

	ldg, err := openLedger(cfg)
	if err != nil {
		slog.Error("failed to open ledger", "err", err, "path", cfg.Ledger.Path)
		os.Exit(1)
	}
	defer ldg.Close()

	if *history {
		printHistory(ldg)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	trk := tracker.New(ldg, time.Now())
	if err := trk.Rebuild(ctx); err != nil {
		slog.Error("failed to rebuild positions from ledger", "err", err)
		os.Exit(1)
	}
	positions, dailyPnL := trk.Snapshot()
	slog.Info("tracker rebuilt", "open_positions", len(positions), "daily_pnl", dailyPnL)

	client := upbit.New(cfg.API.BaseURL, cfg.API.AccessKey, cfg.API.SecretKey, cfg.Trading.MaxMarkets)
	notifier := buildNotifier(cfg)

	traderCfg := trader.Config{
		TradeAmount:    cfg.Trading.TradeAmount,
		TakeProfit:     cfg.Trading.TakeProfit,
		StopLoss:       cfg.Trading.StopLoss,
		Interval:       cfg.Interval(),
		DailyLossLimit: cfg.Trading.DailyLossLimit,
		Windows:        cfg.Windows(),
	}
	bot := trader.New(traderCfg, client, client, notifier, trk, strategy.NewRandom(cfg.Trading.EntryProbability))

	if *once {
		bot.RunOnce(ctx)
		return
	}

	srv := server.New(trk, client, cfg.Server.Addr)
	go func() {
		if err := srv.Run(ctx); err != nil {
			slog.Error("status server exited", "err", err)
		}
	}()

	if cfg.IPCheck.Enabled {
		checker := ipcheck.New(notifier, cfg.IPCheck.LogFile, cfg.IPCheckInterval())
		go func() {
			if err := checker.Watch(ctx); err != nil {
				slog.Error("ip watcher exited", "err", err)
			}
		}()
	}

	if err := bot.Run(ctx); err != nil {
		slog.Error("trader exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("coinbutler stopped cleanly")
}

// openLedger picks the configured backend.
func openLedger(cfg *config.Config) (ports.Ledger, error) {
	if cfg.Ledger.Type == "sqlite" {
		return ledger.NewSQLite(cfg.Ledger.Path)
	}
	return ledger.NewCSV(cfg.Ledger.Path)
}

// buildNotifier prefers Telegram when credentials are configured and falls
// back to the console.
func buildNotifier(cfg *config.Config) ports.Notifier {
	tg := cfg.Telegram()
	notifier := notify.NewTelegram(tg.Token, tg.ChatID)
	if notifier.Enabled() {
		slog.Info("telegram notifications enabled")
		return notifier
	}
	slog.Info("telegram not configured, alerts go to console")
	return notify.NewConsole()
}

func printHistory(ldg ports.Ledger) {
	records, err := ldg.ReadAll(context.Background())
	if err != nil {
		slog.Error("failed to read ledger", "err", err)
		os.Exit(1)
	}
	notify.NewConsole().PrintHistory(records)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
