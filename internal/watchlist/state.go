package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"ValueSentinel/internal/model"
)

// LoadState reads the watchlist from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*model.WatchlistState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.WatchlistState{Items: map[string]*model.WatchItem{}}, nil
		}
		return nil, err
	}
	var state model.WatchlistState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Items == nil {
		state.Items = map[string]*model.WatchItem{}
	}
	return &state, nil
}

// SaveState writes the watchlist to a JSON file, creating its directory if needed.
func SaveState(filePath string, state *model.WatchlistState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
