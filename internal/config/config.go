package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ValueSentinel/internal/model"
	"ValueSentinel/internal/valuation"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL         string        `yaml:"base_url"`
		APIKey          string        `yaml:"api_key"`
		CacheTTL        time.Duration `yaml:"cache_ttl"`
		CacheMaxEntries int           `yaml:"cache_max_entries"`
		Parallelism     int           `yaml:"parallelism"`
	} `yaml:"data_source"`
	Schedule struct {
		RevalueCron string `yaml:"revalue_cron"`
		DigestCron  string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Defaults  model.Assumptions `yaml:"defaults"`
	Watchlist struct {
		StateFile string       `yaml:"state_file"`
		Tickers   []WatchEntry `yaml:"tickers"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// WatchEntry is a configured ticker; unset assumptions fall back to Defaults.
type WatchEntry struct {
	Ticker             string             `yaml:"ticker"`
	DiscountRate       *float64           `yaml:"discount_rate"`
	TerminalGrowthRate *float64           `yaml:"terminal_growth_rate"`
	Growth             *model.GrowthInput `yaml:"growth"`
}

// Assumptions resolves the entry against the configured defaults.
func (e WatchEntry) Assumptions(defaults model.Assumptions) model.Assumptions {
	a := defaults
	if e.DiscountRate != nil {
		a.DiscountRate = *e.DiscountRate
	}
	if e.TerminalGrowthRate != nil {
		a.TerminalGrowthRate = *e.TerminalGrowthRate
	}
	if e.Growth != nil {
		a.Growth = *e.Growth
	}
	return a
}

// Load reads a .env file if present, the YAML config file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Defaults = model.Assumptions{
		DiscountRate:       10,
		TerminalGrowthRate: 2.5,
		Growth:             model.ScalarGrowth(10),
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("FMP_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_REVALUE"); v != "" {
		cfg.Schedule.RevalueCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.DataSource.CacheTTL <= 0 {
		cfg.DataSource.CacheTTL = 5 * time.Minute
	}
	if cfg.DataSource.CacheMaxEntries <= 0 {
		cfg.DataSource.CacheMaxEntries = 256
	}
	if cfg.DataSource.Parallelism <= 0 {
		cfg.DataSource.Parallelism = 4
	}
	if cfg.Schedule.RevalueCron == "" {
		cfg.Schedule.RevalueCron = "0 30 16 * * 1-5"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 9 * * 1"
	}
	if cfg.Watchlist.StateFile == "" {
		cfg.Watchlist.StateFile = "data/watchlist.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/value_sentinel.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error
	if c.DataSource.APIKey == "" {
		errs = append(errs, fmt.Errorf("data_source.api_key is required"))
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together"))
	}
	if err := valuation.CheckAssumptions(c.Defaults); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	for i, t := range c.Watchlist.Tickers {
		if strings.TrimSpace(t.Ticker) == "" {
			errs = append(errs, fmt.Errorf("watchlist.tickers[%d].ticker is required", i))
			continue
		}
		if err := valuation.CheckAssumptions(t.Assumptions(c.Defaults)); err != nil {
			errs = append(errs, fmt.Errorf("watchlist.tickers[%d] (%s): %w", i, t.Ticker, err))
		}
	}
	return errors.Join(errs...)
}

// TelegramEnabled reports whether notifications and chat commands are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
