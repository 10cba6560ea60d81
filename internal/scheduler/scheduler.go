package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ValueSentinel/internal/collector"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/notifier"
	"ValueSentinel/internal/recorder"
	"ValueSentinel/internal/watchlist"
)

// Sender delivers formatted messages. *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// purger is implemented by caching fetchers.
type purger interface {
	Purge() int
}

// Scheduler manages all cron tasks and chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Watchlist *watchlist.Manager
	Notifier  Sender // nil disables notifications
	Recorder  recorder.Recorder
	Defaults  model.Assumptions
	Ctx       context.Context
	log       zerolog.Logger

	revaluing atomic.Bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, wl *watchlist.Manager, n Sender, rec recorder.Recorder, defaults model.Assumptions, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLogger{log}))),
		Collector: col,
		Watchlist: wl,
		Notifier:  n,
		Recorder:  rec,
		Defaults:  defaults,
		Ctx:       ctx,
		log:       log,
	}
}

// RegisterAll registers the revaluation and digest tasks, plus cache
// housekeeping when the fetcher caches.
func (s *Scheduler) RegisterAll(revalueCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(revalueCron, s.revalueTask); err != nil {
		return fmt.Errorf("register revalue task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	if p, ok := s.Collector.Fetcher.(purger); ok {
		if _, err := s.Cron.AddFunc("@every 10m", func() {
			if n := p.Purge(); n > 0 {
				s.log.Debug().Int("entries", n).Msg("purged expired cache entries")
			}
		}); err != nil {
			return fmt.Errorf("register cache purge: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunRevalueNow executes the revaluation task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunRevalueNow() {
	s.revalueTask()
}

func (s *Scheduler) revalueTask() {
	if !s.revaluing.CompareAndSwap(false, true) {
		s.log.Info().Msg("revaluation already running, skipping")
		return
	}
	defer s.revaluing.Store(false)

	items := s.Watchlist.List()
	s.log.Info().Int("tickers", len(items)).Msg("running revaluation")
	if len(items) == 0 {
		return
	}

	jobs := make([]collector.Job, len(items))
	for i, it := range items {
		jobs[i] = collector.Job{Ticker: it.Ticker, Assumptions: it.Assumptions}
	}

	var failed int
	for _, o := range s.Collector.ValueAll(s.Ctx, jobs) {
		if o.Err != nil {
			failed++
			continue
		}
		s.Track(o.Valuation)
	}
	if failed > 0 {
		s.trySend(fmt.Sprintf("❌ Revaluation failed for %d of %d tickers", failed, len(jobs)))
	}
}

// Track records v and, when it flips the verdict of a watched ticker, stores
// the change and sends an alert. Every valuation made under a watched
// ticker's own assumptions must go through here.
func (s *Scheduler) Track(v *model.Valuation) {
	s.record(v)
	prev, changed := s.Watchlist.RecordResult(v)
	if !changed {
		return
	}
	s.log.Info().Str("ticker", v.Ticker).Str("from", string(prev)).Str("to", string(v.Result.Verdict)).Msg("verdict changed")
	if err := s.Recorder.RecordVerdictChange(&recorder.VerdictChange{
		ValuationID:    v.ID,
		Ticker:         v.Ticker,
		From:           prev,
		To:             v.Result.Verdict,
		IntrinsicValue: v.Result.IntrinsicValue,
		Price:          v.Result.CurrentPrice,
	}); err != nil {
		s.log.Error().Err(err).Msg("record verdict change")
	}
	s.trySend(notifier.FormatVerdictChange(v, prev))
}

func (s *Scheduler) digestTask() {
	s.log.Info().Msg("sending watchlist digest")
	s.trySend(notifier.FormatWatchlist(s.Watchlist.List()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	arg := ""
	if len(fields) > 1 {
		arg = strings.ToUpper(fields[1])
	}

	switch strings.ToLower(fields[0]) {
	case "/value":
		if arg == "" {
			return "Usage: /value TICKER"
		}
		a := s.Defaults
		if it, ok := s.Watchlist.Get(arg); ok {
			a = it.Assumptions
		}
		v, err := s.Collector.Value(ctx, arg, a)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", arg).Msg("manual valuation failed")
			return fmt.Sprintf("❌ %v", err)
		}
		s.Track(v)
		return notifier.FormatValuationReport(v)
	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist.List())
	case "/add":
		if arg == "" {
			return "Usage: /add TICKER"
		}
		if _, err := s.Watchlist.Put(arg, s.Defaults); err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return fmt.Sprintf("✅ %s added to the watchlist", arg)
	case "/remove":
		if arg == "" {
			return "Usage: /remove TICKER"
		}
		if err := s.Watchlist.Remove(arg); err != nil {
			if errors.Is(err, watchlist.ErrNotWatched) {
				return fmt.Sprintf("%s is not on the watchlist", arg)
			}
			return fmt.Sprintf("❌ %v", err)
		}
		return fmt.Sprintf("✅ %s removed from the watchlist", arg)
	case "/revalue":
		if s.revaluing.Load() {
			return "⏳ Revaluation already running"
		}
		go s.revalueTask()
		return "⏳ Revaluation started"
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /value TICKER\n• /watchlist\n• /add TICKER\n• /remove TICKER\n• /revalue"

func (s *Scheduler) record(v *model.Valuation) {
	if err := s.Recorder.RecordValuation(v); err != nil {
		s.log.Error().Err(err).Str("ticker", v.Ticker).Msg("record valuation")
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		s.log.Debug().Str("text", text).Msg("notifications disabled")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
