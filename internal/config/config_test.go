package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
	"ValueSentinel/internal/valuation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.DataSource.CacheTTL)
	assert.Equal(t, 256, cfg.DataSource.CacheMaxEntries)
	assert.Equal(t, 4, cfg.DataSource.Parallelism)
	assert.Equal(t, "0 30 16 * * 1-5", cfg.Schedule.RevalueCron)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, model.Assumptions{DiscountRate: 10, TerminalGrowthRate: 2.5, Growth: model.ScalarGrowth(10)}, cfg.Defaults)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
data_source:
  api_key: from-file
  cache_ttl: 2m
defaults:
  discount_rate: 9
  terminal_growth_rate: 3
  growth: [20, 18, 16, 14, 12, 10, 8, 6, 4, 3]
watchlist:
  tickers:
    - ticker: AAPL
    - ticker: msft
      discount_rate: 8
      growth: 12
`)
	t.Setenv("FMP_API_KEY", "from-env")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-env", cfg.DataSource.APIKey)
	assert.Equal(t, 2*time.Minute, cfg.DataSource.CacheTTL)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, model.GrowthPerYear, cfg.Defaults.Growth.Kind)
	assert.Len(t, cfg.Defaults.Growth.Rates, 10)

	require.Len(t, cfg.Watchlist.Tickers, 2)
	aapl := cfg.Watchlist.Tickers[0].Assumptions(cfg.Defaults)
	assert.Equal(t, cfg.Defaults, aapl)

	msft := cfg.Watchlist.Tickers[1].Assumptions(cfg.Defaults)
	assert.Equal(t, 8.0, msft.DiscountRate)
	assert.Equal(t, 3.0, msft.TerminalGrowthRate)
	assert.Equal(t, model.ScalarGrowth(12), msft.Growth)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "defaults: [oops"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.DataSource.APIKey = ""
	cfg.Telegram.BotToken = "token-only"
	cfg.Defaults.TerminalGrowthRate = cfg.Defaults.DiscountRate
	cfg.Watchlist.Tickers = []WatchEntry{{Ticker: " "}}

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "api_key")
	assert.ErrorContains(t, err, "set together")
	assert.ErrorContains(t, err, "defaults:")
	assert.ErrorIs(t, err, valuation.ErrDegenerateTerminalValue)
	assert.ErrorContains(t, err, "tickers[0]")
	assert.False(t, cfg.TelegramEnabled())
}

func TestValidate_WatchlistAssumptions(t *testing.T) {
	path := writeConfig(t, `
data_source:
  api_key: key
watchlist:
  tickers:
    - ticker: AAPL
    - ticker: MSFT
      growth: [12, 11, 10]
    - ticker: NVDA
      terminal_growth_rate: 12
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "AAPL")
	assert.ErrorContains(t, err, "watchlist.tickers[1] (MSFT)")
	assert.ErrorIs(t, err, valuation.ErrInvalidGrowthSchedule)
	assert.ErrorContains(t, err, "watchlist.tickers[2] (NVDA)")
	assert.ErrorIs(t, err, valuation.ErrDegenerateTerminalValue)
}
