// Command sentinel values stocks with a discounted cash flow model, watches a
// list of tickers and alerts when a verdict flips.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ValueSentinel/internal/config"
	"ValueSentinel/internal/logger"
)

var (
	configPath string
	logLevel   string
	prettyLog  bool
)

var rootCmd = &cobra.Command{
	Use:           "sentinel",
	Short:         "DCF valuation engine and watchlist monitor",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultCfg, "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&prettyLog, "pretty", false, "human-readable console logs")

	rootCmd.AddCommand(serveCmd, valueCmd, calcCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the configuration and builds the logger
// it describes. Flags take precedence over the file.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if prettyLog {
		cfg.Log.Pretty = true
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("config validation: %w", err)
	}
	return cfg, log, nil
}
