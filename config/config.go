package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hmbass/CoinButler/internal/domain"
)

// Config is the full bot configuration.
type Config struct {
	Trading TradingConfig `yaml:"trading"`
	API     APIConfig     `yaml:"api"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Server  ServerConfig  `yaml:"server"`
	IPCheck IPCheckConfig `yaml:"ip_check"`
	Log     LogConfig     `yaml:"log"`
}

// TradingConfig controls the decision loop.
type TradingConfig struct {
	TradeAmount      float64  `yaml:"trade_amount"`      // notional KRW per entry
	TakeProfit       float64  `yaml:"take_profit"`       // fractional, e.g. 0.03
	StopLoss         float64  `yaml:"stop_loss"`         // fractional, e.g. -0.02
	VolumeThreshold  float64  `yaml:"volume_threshold"`  // reserved; not consulted by the loop
	IntervalSeconds  int      `yaml:"interval_seconds"`
	MaxMarkets       int      `yaml:"max_markets"`
	DailyLossLimit   float64  `yaml:"daily_loss_limit"` // signed KRW, e.g. -50000
	EntryProbability float64  `yaml:"entry_probability"`
	MonitoringHours  [][2]int `yaml:"monitoring_hours"` // [[9,11],[21,24]]
}

// APIConfig contains the exchange endpoints and credentials. Credentials come
// from the environment, never from the YAML file.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// LedgerConfig picks the trade ledger backend.
type LedgerConfig struct {
	Type string `yaml:"type"` // "csv" or "sqlite"
	Path string `yaml:"path"`
}

// ServerConfig controls the read-only status server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// IPCheckConfig controls the auxiliary external-IP watcher.
type IPCheckConfig struct {
	Enabled         bool   `yaml:"enabled"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	LogFile         string `yaml:"log_file"`
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Telegram credentials, environment-only. Empty values disable notification.
type TelegramConfig struct {
	Token  string
	ChatID string
}

// Load reads the YAML file at path, loads .env if present, applies env
// overrides and fills defaults. A missing config file is not an error: the
// defaults plus environment are a complete configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Interval returns the tick period as a time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Trading.IntervalSeconds) * time.Second
}

// IPCheckInterval returns the IP watcher poll period.
func (c *Config) IPCheckInterval() time.Duration {
	return time.Duration(c.IPCheck.IntervalSeconds) * time.Second
}

// Windows converts the configured hour pairs into domain monitoring windows.
func (c *Config) Windows() domain.Windows {
	ws := make(domain.Windows, 0, len(c.Trading.MonitoringHours))
	for _, pair := range c.Trading.MonitoringHours {
		ws = append(ws, domain.Window{Start: pair[0], End: pair[1]})
	}
	return ws
}

// Telegram returns the notifier credentials from the environment.
func (c *Config) Telegram() TelegramConfig {
	return TelegramConfig{
		Token:  os.Getenv("TELEGRAM_TOKEN"),
		ChatID: os.Getenv("TELEGRAM_CHAT_ID"),
	}
}

// Validate rejects configurations the trader cannot run with.
func (c *Config) Validate() error {
	if c.Trading.TradeAmount <= 0 {
		return fmt.Errorf("trading.trade_amount must be positive")
	}
	if c.Trading.TakeProfit <= 0 {
		return fmt.Errorf("trading.take_profit must be positive")
	}
	if c.Trading.StopLoss >= 0 {
		return fmt.Errorf("trading.stop_loss must be negative")
	}
	if c.Trading.DailyLossLimit >= 0 {
		return fmt.Errorf("trading.daily_loss_limit must be negative")
	}
	if c.Trading.EntryProbability < 0 || c.Trading.EntryProbability > 1 {
		return fmt.Errorf("trading.entry_probability must be in [0,1]")
	}
	for _, w := range c.Windows() {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if c.Ledger.Type != "csv" && c.Ledger.Type != "sqlite" {
		return fmt.Errorf("ledger.type must be 'csv' or 'sqlite', got %q", c.Ledger.Type)
	}
	return nil
}

// applyEnvOverrides pulls credentials and log settings from the environment.
func applyEnvOverrides(cfg *Config) {
	cfg.API.AccessKey = os.Getenv("UPBIT_ACCESS_KEY")
	cfg.API.SecretKey = os.Getenv("UPBIT_SECRET_KEY")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills every unset value with the reference defaults.
func setDefaults(cfg *Config) {
	if cfg.Trading.TradeAmount == 0 {
		cfg.Trading.TradeAmount = 50000
	}
	if cfg.Trading.TakeProfit == 0 {
		cfg.Trading.TakeProfit = 0.03
	}
	if cfg.Trading.StopLoss == 0 {
		cfg.Trading.StopLoss = -0.02
	}
	if cfg.Trading.VolumeThreshold == 0 {
		cfg.Trading.VolumeThreshold = 3.0
	}
	if cfg.Trading.IntervalSeconds <= 0 {
		cfg.Trading.IntervalSeconds = 60
	}
	if cfg.Trading.MaxMarkets <= 0 {
		cfg.Trading.MaxMarkets = 10
	}
	if cfg.Trading.DailyLossLimit == 0 {
		cfg.Trading.DailyLossLimit = -50000
	}
	if cfg.Trading.EntryProbability == 0 {
		cfg.Trading.EntryProbability = 0.01
	}
	if len(cfg.Trading.MonitoringHours) == 0 {
		cfg.Trading.MonitoringHours = [][2]int{{9, 11}, {21, 24}}
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.upbit.com"
	}
	if cfg.Ledger.Type == "" {
		cfg.Ledger.Type = "csv"
	}
	if cfg.Ledger.Path == "" {
		if cfg.Ledger.Type == "sqlite" {
			cfg.Ledger.Path = "trade_history.db"
		} else {
			cfg.Ledger.Path = "trade_history.csv"
		}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.IPCheck.IntervalSeconds <= 0 {
		cfg.IPCheck.IntervalSeconds = 3600
	}
	if cfg.IPCheck.LogFile == "" {
		cfg.IPCheck.LogFile = "ip_changes.log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
