package model

import "time"

// StockData is the market snapshot needed to value a stock.
// Monetary figures are in the reporting currency of the data source.
type StockData struct {
	Ticker            string    `json:"ticker"`
	FreeCashFlowTTM   float64   `json:"freeCashFlowTTM"`
	CurrentPrice      float64   `json:"currentPrice"`
	SharesOutstanding float64   `json:"sharesOutstanding"`
	MarketCap         float64   `json:"marketCap"`
	FetchedAt         time.Time `json:"fetchedAt"`
}
