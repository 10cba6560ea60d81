package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/collector"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/recorder"
	"ValueSentinel/internal/watchlist"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type memRecorder struct {
	recorder.NoopRecorder
	mu         sync.Mutex
	valuations []*model.Valuation
	changes    []*recorder.VerdictChange
}

func (m *memRecorder) RecordValuation(v *model.Valuation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valuations = append(m.valuations, v)
	return nil
}

func (m *memRecorder) RecordVerdictChange(evt *recorder.VerdictChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, evt)
	return nil
}

var defaults = model.Assumptions{DiscountRate: 10, TerminalGrowthRate: 2.5, Growth: model.ScalarGrowth(10)}

func newTestScheduler(t *testing.T, mock *collector.MockFetcher, watched ...string) (*Scheduler, *fakeSender, *memRecorder) {
	t.Helper()
	var seed []model.WatchItem
	for _, tk := range watched {
		seed = append(seed, model.WatchItem{Ticker: tk, Assumptions: defaults})
	}
	wl, err := watchlist.NewManager(filepath.Join(t.TempDir(), "wl.json"), seed, zerolog.Nop())
	require.NoError(t, err)

	sender := &fakeSender{}
	rec := &memRecorder{}
	col := collector.NewCollector(mock, 2, zerolog.Nop())
	s := NewScheduler(context.Background(), col, wl, sender, rec, defaults, zerolog.Nop())
	return s, sender, rec
}

func stock(price float64) model.StockData {
	return model.StockData{FreeCashFlowTTM: 100, CurrentPrice: price, SharesOutstanding: 10}
}

func TestRegisterAll(t *testing.T) {
	mock := &collector.MockFetcher{}
	s, _, _ := newTestScheduler(t, mock)
	require.NoError(t, s.RegisterAll("0 30 16 * * 1-5", "0 0 9 * * 1"))
	assert.Len(t, s.Cron.Entries(), 2)

	cached := collector.NewCachedFetcher(mock, 0, 0, zerolog.Nop())
	s.Collector = collector.NewCollector(cached, 1, zerolog.Nop())
	require.NoError(t, s.RegisterAll("0 30 16 * * 1-5", "0 0 9 * * 1"))
	assert.Len(t, s.Cron.Entries(), 5)

	assert.Error(t, s.RegisterAll("not a cron", "0 0 9 * * 1"))
}

func TestRevalueTask_AlertsOnVerdictChange(t *testing.T) {
	mock := &collector.MockFetcher{Stocks: map[string]model.StockData{"AAPL": stock(50), "MSFT": stock(50)}}
	s, sender, rec := newTestScheduler(t, mock, "AAPL", "MSFT", "GONE")

	s.RunRevalueNow()
	assert.Len(t, rec.valuations, 2)
	assert.Empty(t, rec.changes)
	// first pass only reports the failed ticker
	require.Len(t, sender.messages(), 1)
	assert.Contains(t, sender.messages()[0], "failed for 1 of 3")

	// AAPL price jumps above intrinsic value (~236.67)
	mock.Stocks["AAPL"] = stock(400)
	s.RunRevalueNow()

	require.Len(t, rec.changes, 1)
	assert.Equal(t, "AAPL", rec.changes[0].Ticker)
	assert.Equal(t, model.VerdictUndervalued, rec.changes[0].From)
	assert.Equal(t, model.VerdictOvervalued, rec.changes[0].To)

	msgs := sender.messages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[1], "AAPL verdict changed")

	it, _ := s.Watchlist.Get("AAPL")
	assert.Equal(t, model.VerdictOvervalued, it.LastVerdict)
}

func TestHandleCommand(t *testing.T) {
	mock := &collector.MockFetcher{Stocks: map[string]model.StockData{"AAPL": stock(50)}}
	s, _, rec := newTestScheduler(t, mock)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "hello"), "Available commands")
	assert.Equal(t, "Usage: /value TICKER", s.HandleCommand(ctx, "/value"))

	reply := s.HandleCommand(ctx, "/value aapl")
	assert.Contains(t, reply, "DCF AAPL")
	assert.Len(t, rec.valuations, 1)

	assert.Contains(t, s.HandleCommand(ctx, "/value nope"), "❌")

	assert.Equal(t, "✅ AAPL added to the watchlist", s.HandleCommand(ctx, "/add aapl"))
	assert.Contains(t, s.HandleCommand(ctx, "/watchlist"), "AAPL")
	assert.Equal(t, "✅ AAPL removed from the watchlist", s.HandleCommand(ctx, "/remove AAPL"))
	assert.Equal(t, "AAPL is not on the watchlist", s.HandleCommand(ctx, "/remove AAPL"))
}

func TestTrySend_WithoutNotifier(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{})
	s.Notifier = nil
	assert.NotPanics(t, func() { s.trySend("quiet") })
}

func TestHandleCommand_ValueAlertsOnVerdictChange(t *testing.T) {
	mock := &collector.MockFetcher{Stocks: map[string]model.StockData{"AAPL": stock(50)}}
	s, sender, rec := newTestScheduler(t, mock, "AAPL")
	ctx := context.Background()

	s.RunRevalueNow()
	require.Empty(t, sender.messages())

	mock.Stocks["AAPL"] = stock(400)
	reply := s.HandleCommand(ctx, "/value AAPL")
	assert.Contains(t, reply, "DCF AAPL")

	require.Len(t, rec.changes, 1)
	assert.Equal(t, model.VerdictOvervalued, rec.changes[0].To)
	require.Len(t, sender.messages(), 1)
	assert.Contains(t, sender.messages()[0], "AAPL verdict changed")

	// the next scheduled run sees no further change
	s.RunRevalueNow()
	assert.Len(t, rec.changes, 1)
	assert.Len(t, sender.messages(), 1)
}

func TestRevalueTask_SkipsWhileRunning(t *testing.T) {
	mock := &collector.MockFetcher{Stocks: map[string]model.StockData{"AAPL": stock(50)}}
	s, _, _ := newTestScheduler(t, mock, "AAPL")

	s.revaluing.Store(true)
	s.RunRevalueNow()
	assert.Equal(t, int64(0), mock.Calls())
	assert.Equal(t, "⏳ Revaluation already running", s.HandleCommand(context.Background(), "/revalue"))

	s.revaluing.Store(false)
	s.RunRevalueNow()
	assert.Equal(t, int64(1), mock.Calls())
	assert.False(t, s.revaluing.Load())
}
