// Package watchlist keeps the set of tracked tickers and the outcome of their
// last valuation, persisted as JSON.
package watchlist

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ValueSentinel/internal/model"
)

var ErrNotWatched = errors.New("ticker is not on the watchlist")

// Manager handles watchlist operations with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.WatchlistState
	filePath string
	log      zerolog.Logger
}

// NewManager creates a Manager, loading state from disk and seeding any
// configured ticker that is not tracked yet.
func NewManager(filePath string, seed []model.WatchItem, log zerolog.Logger) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	for _, item := range seed {
		key := normalize(item.Ticker)
		if key == "" {
			continue
		}
		if _, ok := state.Items[key]; !ok {
			item.Ticker = key
			it := item
			state.Items[key] = &it
		}
	}

	m := &Manager{state: state, filePath: filePath, log: log.With().Str("component", "watchlist").Logger()}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns copies of all items sorted by ticker.
func (m *Manager) List() []model.WatchItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.WatchItem, 0, len(m.state.Items))
	for _, it := range m.state.Items {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Ticker < items[j].Ticker })
	return items
}

// Get returns a copy of the item for ticker.
func (m *Manager) Get(ticker string) (model.WatchItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.state.Items[normalize(ticker)]
	if !ok {
		return model.WatchItem{}, false
	}
	return *it, true
}

// Put adds ticker or replaces its assumptions, keeping the last result.
func (m *Manager) Put(ticker string, a model.Assumptions) (model.WatchItem, error) {
	key := normalize(ticker)
	if key == "" {
		return model.WatchItem{}, errors.New("ticker cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, existed := m.state.Items[key]
	it := &model.WatchItem{Ticker: key}
	if existed {
		cp := *prev
		it = &cp
	}
	it.Assumptions = a
	m.state.Items[key] = it
	if err := m.save(); err != nil {
		if existed {
			m.state.Items[key] = prev
		} else {
			delete(m.state.Items, key)
		}
		return model.WatchItem{}, err
	}
	return *it, nil
}

// Remove drops ticker from the watchlist.
func (m *Manager) Remove(ticker string) error {
	key := normalize(ticker)
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.state.Items[key]
	if !ok {
		return ErrNotWatched
	}
	delete(m.state.Items, key)
	if err := m.save(); err != nil {
		m.state.Items[key] = prev
		return err
	}
	return nil
}

// RecordResult stores the outcome of a valuation and returns the previous
// verdict together with whether the verdict changed. The first result for a
// ticker is not a change.
func (m *Manager) RecordResult(v *model.Valuation) (prev model.Verdict, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.state.Items[normalize(v.Ticker)]
	if !ok {
		return "", false
	}
	prev = it.LastVerdict
	changed = prev != "" && prev != v.Result.Verdict

	it.LastVerdict = v.Result.Verdict
	it.LastIntrinsicValue = v.Result.IntrinsicValue
	it.LastPrice = v.Result.CurrentPrice
	it.LastCheckedAt = v.CreatedAt
	if it.LastCheckedAt.IsZero() {
		it.LastCheckedAt = time.Now()
	}

	if err := m.save(); err != nil {
		m.log.Error().Err(err).Msg("failed to save watchlist state")
	}
	return prev, changed
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
