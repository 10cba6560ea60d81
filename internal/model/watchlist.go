package model

import "time"

// WatchItem is a watched ticker together with the outcome of its last valuation.
type WatchItem struct {
	Ticker             string      `json:"ticker"`
	Assumptions        Assumptions `json:"assumptions"`
	LastVerdict        Verdict     `json:"last_verdict,omitempty"`
	LastIntrinsicValue float64     `json:"last_intrinsic_value,omitempty"`
	LastPrice          float64     `json:"last_price,omitempty"`
	LastCheckedAt      time.Time   `json:"last_checked_at,omitempty"`
}

// WatchlistState is the persisted watchlist.
type WatchlistState struct {
	Items     map[string]*WatchItem `json:"items"`
	UpdatedAt time.Time             `json:"updated_at"`
}
