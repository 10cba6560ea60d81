package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(next Fetcher, maxEntries int) (*CachedFetcher, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)}
	c := NewCachedFetcher(next, 0, maxEntries, zerolog.Nop())
	c.now = clock.Now
	return c, clock
}

func mockStocks(tickers ...string) *MockFetcher {
	m := &MockFetcher{Stocks: map[string]model.StockData{}}
	for i, t := range tickers {
		m.Stocks[t] = model.StockData{FreeCashFlowTTM: float64(100 * (i + 1)), CurrentPrice: 50, SharesOutstanding: 10}
	}
	return m
}

func TestCachedFetcher_HitWithinTTL(t *testing.T) {
	mock := mockStocks("AAPL")
	c, clock := newTestCache(mock, 0)
	ctx := context.Background()

	first, err := c.FetchStockData(ctx, "aapl")
	require.NoError(t, err)
	clock.Advance(4*time.Minute + 59*time.Second)
	second, err := c.FetchStockData(ctx, "AAPL ")
	require.NoError(t, err)

	assert.Equal(t, int64(1), mock.Calls())
	assert.Equal(t, first, second)
	assert.Equal(t, "mock+cache", c.Name())
}

func TestCachedFetcher_ExpiresAfterTTL(t *testing.T) {
	mock := mockStocks("AAPL")
	c, clock := newTestCache(mock, 0)
	ctx := context.Background()

	_, err := c.FetchStockData(ctx, "AAPL")
	require.NoError(t, err)
	clock.Advance(DefaultCacheTTL)
	_, err = c.FetchStockData(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(2), mock.Calls())
}

func TestCachedFetcher_ReturnsCopies(t *testing.T) {
	c, _ := newTestCache(mockStocks("AAPL"), 0)
	first, err := c.FetchStockData(context.Background(), "AAPL")
	require.NoError(t, err)
	first.CurrentPrice = -1
	second, err := c.FetchStockData(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 50.0, second.CurrentPrice)
}

func TestCachedFetcher_EvictsOldestWhenFull(t *testing.T) {
	mock := mockStocks("A", "B", "C")
	c, clock := newTestCache(mock, 2)
	ctx := context.Background()

	for _, tk := range []string{"A", "B", "C"} {
		_, err := c.FetchStockData(ctx, tk)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	assert.Equal(t, 2, c.Len())

	// B and C are cached, A was evicted
	_, _ = c.FetchStockData(ctx, "B")
	_, _ = c.FetchStockData(ctx, "C")
	assert.Equal(t, int64(3), mock.Calls())
	_, _ = c.FetchStockData(ctx, "A")
	assert.Equal(t, int64(4), mock.Calls())
}

func TestCachedFetcher_DoesNotCacheErrors(t *testing.T) {
	mock := mockStocks()
	c, _ := newTestCache(mock, 0)
	_, err := c.FetchStockData(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrTickerNotFound)
	_, err = c.FetchStockData(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrTickerNotFound)
	assert.Equal(t, int64(2), mock.Calls())
	assert.Equal(t, 0, c.Len())
}

func TestCachedFetcher_ConcurrentMissesShareFetch(t *testing.T) {
	mock := mockStocks("AAPL")
	mock.Delay = 50 * time.Millisecond
	c, _ := newTestCache(mock, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchStockData(context.Background(), "aapl")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), mock.Calls())
}

func TestCachedFetcher_Purge(t *testing.T) {
	c, clock := newTestCache(mockStocks("A", "B"), 0)
	_, _ = c.FetchStockData(context.Background(), "A")
	clock.Advance(3 * time.Minute)
	_, _ = c.FetchStockData(context.Background(), "B")
	clock.Advance(3 * time.Minute)
	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())
}

func TestCachedFetcher_EmptyTicker(t *testing.T) {
	c, _ := newTestCache(mockStocks(), 0)
	_, err := c.FetchStockData(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyTicker)
}

func TestCachedFetcher_CancelledCallerDoesNotFailOthers(t *testing.T) {
	mock := mockStocks("AAPL")
	mock.Delay = 200 * time.Millisecond
	c, _ := newTestCache(mock, 0)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchStockData(ctx, "AAPL")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return mock.Calls() == 1 }, time.Second, 5*time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := c.FetchStockData(context.Background(), "AAPL")
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.NoError(t, <-secondErr)
	assert.Equal(t, 1, c.Len())
}

func TestCachedFetcher_CancelledSoleCallerStillFillsCache(t *testing.T) {
	mock := mockStocks("AAPL")
	mock.Delay = 50 * time.Millisecond
	c, _ := newTestCache(mock, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.FetchStockData(ctx, "AAPL")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, err = c.FetchStockData(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(1), mock.Calls())
}
