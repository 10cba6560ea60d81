package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ValueSentinel/internal/model"
)

// DefaultFMPBaseURL is the Financial Modeling Prep v3 REST endpoint.
const DefaultFMPBaseURL = "https://financialmodelingprep.com/api/v3"

// ttmQuarters is how many quarterly statements make up the trailing twelve months.
const ttmQuarters = 4

// FMPFetcher implements Fetcher using the Financial Modeling Prep REST API.
type FMPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewFMPFetcher creates a new fetcher with optional proxy support.
func NewFMPFetcher(baseURL, apiKey, proxyURL string) *FMPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultFMPBaseURL
	}
	return &FMPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *FMPFetcher) Name() string { return "fmp" }

// fmpCashFlow is the subset of a cash-flow statement we read.
type fmpCashFlow struct {
	Date         string   `json:"date"`
	Symbol       string   `json:"symbol"`
	Period       string   `json:"period"`
	FreeCashFlow *float64 `json:"freeCashFlow"`
}

// fmpQuote is the subset of a quote we read. Pointers tell missing from zero.
type fmpQuote struct {
	Symbol            string   `json:"symbol"`
	Price             *float64 `json:"price"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
	MarketCap         *float64 `json:"marketCap"`
}

// FetchStockData sums free cash flow over the last four quarters and reads
// price, shares outstanding and market cap from the latest quote.
func (f *FMPFetcher) FetchStockData(ctx context.Context, ticker string) (*model.StockData, error) {
	if f.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, ErrEmptyTicker
	}

	var statements []fmpCashFlow
	endpoint := fmt.Sprintf("%s/cash-flow-statement/%s?period=quarter&limit=%d&apikey=%s",
		f.BaseURL, url.PathEscape(symbol), ttmQuarters, url.QueryEscape(f.APIKey))
	if err := f.getJSON(ctx, endpoint, symbol, &statements); err != nil {
		return nil, fmt.Errorf("fetch cash flow: %w", err)
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: no cash flow data for %s", ErrNoData, symbol)
	}
	if len(statements) > ttmQuarters {
		statements = statements[:ttmQuarters]
	}
	var fcfTTM float64
	for _, s := range statements {
		if s.FreeCashFlow != nil {
			fcfTTM += *s.FreeCashFlow
		}
	}

	var quotes []fmpQuote
	endpoint = fmt.Sprintf("%s/quote/%s?apikey=%s", f.BaseURL, url.PathEscape(symbol), url.QueryEscape(f.APIKey))
	if err := f.getJSON(ctx, endpoint, symbol, &quotes); err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no quote data for %s", ErrNoData, symbol)
	}
	q := quotes[0]
	if q.Price == nil || q.SharesOutstanding == nil || q.MarketCap == nil {
		return nil, fmt.Errorf("%w: missing price, shares outstanding or market cap for %s", ErrMalformedQuote, symbol)
	}

	return &model.StockData{
		Ticker:            symbol,
		FreeCashFlowTTM:   fcfTTM,
		CurrentPrice:      *q.Price,
		SharesOutstanding: *q.SharesOutstanding,
		MarketCap:         *q.MarketCap,
		FetchedAt:         time.Now(),
	}, nil
}

func (f *FMPFetcher) getJSON(ctx context.Context, endpoint, symbol string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
