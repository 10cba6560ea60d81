package collector

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"ValueSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Stocks map[string]model.StockData // keyed by upper-case ticker
	Err    error
	Delay  time.Duration

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchStockData(ctx context.Context, ticker string) (*model.StockData, error) {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, ErrEmptyTicker
	}
	s, ok := m.Stocks[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	s.Ticker = symbol
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now()
	}
	return &s, nil
}

// Calls reports how many fetches reached the mock.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }
