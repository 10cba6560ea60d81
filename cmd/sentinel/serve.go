package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ValueSentinel/internal/collector"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/notifier"
	"ValueSentinel/internal/recorder"
	"ValueSentinel/internal/scheduler"
	"ValueSentinel/internal/server"
	"ValueSentinel/internal/watchlist"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the revaluation scheduler and Telegram commands",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().Msg("ValueSentinel starting...")

	// Init fetcher
	fmp := collector.NewFMPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	fetcher := collector.NewCachedFetcher(fmp, cfg.DataSource.CacheTTL, cfg.DataSource.CacheMaxEntries, log)
	log.Info().Str("fetcher", fetcher.Name()).Dur("cache_ttl", cfg.DataSource.CacheTTL).Msg("data source ready")

	col := collector.NewCollector(fetcher, cfg.DataSource.Parallelism, log)

	// Init watchlist
	seed := make([]model.WatchItem, 0, len(cfg.Watchlist.Tickers))
	for _, e := range cfg.Watchlist.Tickers {
		seed = append(seed, model.WatchItem{Ticker: e.Ticker, Assumptions: e.Assumptions(cfg.Defaults)})
	}
	wl, err := watchlist.NewManager(cfg.Watchlist.StateFile, seed, log)
	if err != nil {
		return err
	}

	// Init recorder
	var rec recorder.Recorder
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
	}
	defer rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram is optional; without it the scheduler only logs.
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	} else {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, col, wl, sender, rec, cfg.Defaults, log)
	if err := sched.RegisterAll(cfg.Schedule.RevalueCron, cfg.Schedule.DigestCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, revaluing watchlist now")
		go sched.RunRevalueNow()
	}

	srv := server.New(server.Config{
		Addr:      cfg.Server.Addr,
		Log:       log,
		Collector: col,
		Watchlist: wl,
		Recorder:  rec,
		Tracker:   sched,
		Defaults:  cfg.Defaults,
	})
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	log.Info().Msg("ValueSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-srvErr:
		log.Error().Err(err).Msg("HTTP server failed")
		cancel()
		return err
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}
	log.Info().Msg("ValueSentinel stopped")
	return nil
}
