package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/AceKusamaDev/solbotrader2/internal/models"
)

func writeTestConfig(t *testing.T, content string) string {
	// LoadConfig accumulates search paths on the global viper instance.
	viper.Reset()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o644)
	assert.NoError(t, err)
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeTestConfig(t, `
trading:
  strategy: trend-following
  amount: 100
  pair: SOL/USDC
  max_runs: 3
  test_mode: true
logger:
  level: debug
  format: console
`)

	cfg, err := LoadConfig(dir)

	assert.NoError(t, err)
	assert.Equal(t, "trend-following", cfg.Trading.Strategy)
	assert.Equal(t, 100.0, cfg.Trading.Amount)
	assert.Equal(t, 3, cfg.Trading.MaxRuns)
	assert.Equal(t, "debug", cfg.Logger.Level)

	// Unset keys fall back to defaults.
	assert.Equal(t, "https://quote-api.jup.ag/v6", cfg.Jupiter.BaseURL)
	assert.Equal(t, "confirmed", cfg.Solana.Commitment)
	assert.Equal(t, 0.5, cfg.Trading.SlippagePercent)
	assert.Equal(t, 50, cfg.Trading.HistoryLimit)
	assert.Equal(t, "trades.db", cfg.Database.DSN)
}

func TestLoadConfigMissingFile(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestTradingSettings(t *testing.T) {
	tr := Trading{
		Strategy:           "trend-following",
		Amount:             100,
		Pair:               "SOL/USDC",
		StopLossPercent:    2.5,
		TakeProfitPercent:  5,
		MaxRuns:            2,
		RunIntervalMinutes: 5,
		TestMode:           true,
		Action:             "buy",
	}

	s := tr.Settings()

	assert.NoError(t, s.Validate())
	assert.Equal(t, models.ActionBuy, s.Action)
	assert.Equal(t, 2, s.MaxRuns)
}
