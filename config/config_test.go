package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmbass/CoinButler/config"
	"github.com/hmbass/CoinButler/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 50000.0, cfg.Trading.TradeAmount)
	assert.Equal(t, 0.03, cfg.Trading.TakeProfit)
	assert.Equal(t, -0.02, cfg.Trading.StopLoss)
	assert.Equal(t, -50000.0, cfg.Trading.DailyLossLimit)
	assert.Equal(t, 60*time.Second, cfg.Interval())
	assert.Equal(t, "csv", cfg.Ledger.Type)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, domain.Windows{{Start: 9, End: 11}, {Start: 21, End: 24}}, cfg.Windows())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
trading:
  trade_amount: 10000
  take_profit: 0.05
  stop_loss: -0.04
  interval_seconds: 30
  daily_loss_limit: -20000
  monitoring_hours: [[0, 24]]
ledger:
  type: sqlite
server:
  addr: ":8080"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Trading.TradeAmount)
	assert.Equal(t, 0.05, cfg.Trading.TakeProfit)
	assert.Equal(t, -0.04, cfg.Trading.StopLoss)
	assert.Equal(t, 30*time.Second, cfg.Interval())
	assert.Equal(t, "sqlite", cfg.Ledger.Type)
	assert.Equal(t, "trade_history.db", cfg.Ledger.Path, "default path follows the backend")
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, domain.Windows{{Start: 0, End: 24}}, cfg.Windows())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("UPBIT_ACCESS_KEY", "env-access")
	t.Setenv("UPBIT_SECRET_KEY", "env-secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-access", cfg.API.AccessKey)
	assert.Equal(t, "env-secret", cfg.API.SecretKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestTelegramFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	tg := cfg.Telegram()
	assert.Equal(t, "tok", tg.Token)
	assert.Equal(t, "42", tg.ChatID)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"positive stop loss": `
trading:
  stop_loss: 0.02
`,
		"negative take profit": `
trading:
  take_profit: -0.03
`,
		"positive daily loss limit": `
trading:
  daily_loss_limit: 50000
`,
		"entry probability above one": `
trading:
  entry_probability: 1.5
`,
		"inverted monitoring window": `
trading:
  monitoring_hours: [[11, 9]]
`,
		"unknown ledger backend": `
ledger:
  type: postgres
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := config.Load(writeConfig(t, "trading: ["))
	assert.Error(t, err)
}
