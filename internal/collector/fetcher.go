package collector

import (
	"context"
	"errors"

	"ValueSentinel/internal/model"
)

// Fetcher defines the interface for fetching the market data a valuation needs.
type Fetcher interface {
	FetchStockData(ctx context.Context, ticker string) (*model.StockData, error)
	Name() string
}

var (
	ErrMissingAPIKey  = errors.New("market data API key is missing")
	ErrEmptyTicker    = errors.New("stock ticker cannot be empty")
	ErrNoData         = errors.New("no data returned for ticker")
	ErrMalformedQuote = errors.New("invalid quote data")
	ErrUnauthorized   = errors.New("invalid API key or insufficient permissions")
	ErrTickerNotFound = errors.New("stock ticker not found or data unavailable")
)
