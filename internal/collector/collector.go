package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ValueSentinel/internal/model"
	"ValueSentinel/internal/valuation"
)

// DefaultParallelism bounds concurrent fetches in ValueAll.
const DefaultParallelism = 4

// Collector fetches market data and runs the valuation engine on it.
type Collector struct {
	Fetcher     Fetcher
	Parallelism int
	log         zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, parallelism int, log zerolog.Logger) *Collector {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Collector{
		Fetcher:     fetcher,
		Parallelism: parallelism,
		log:         log.With().Str("component", "collector").Logger(),
	}
}

// Stock fetches the market snapshot for ticker.
func (c *Collector) Stock(ctx context.Context, ticker string) (*model.StockData, error) {
	return c.Fetcher.FetchStockData(ctx, ticker)
}

// Value fetches market data for ticker and values it under the given assumptions.
func (c *Collector) Value(ctx context.Context, ticker string, a model.Assumptions) (*model.Valuation, error) {
	stock, err := c.Fetcher.FetchStockData(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", strings.ToUpper(ticker), err)
	}
	result, err := valuation.Evaluate(a.Inputs(stock))
	if err != nil {
		return nil, fmt.Errorf("value %s: %w", stock.Ticker, err)
	}
	c.log.Debug().
		Str("ticker", stock.Ticker).
		Float64("intrinsic", result.IntrinsicValue).
		Float64("price", result.CurrentPrice).
		Str("verdict", string(result.Verdict)).
		Msg("valued")
	return &model.Valuation{
		ID:          uuid.NewString(),
		Ticker:      stock.Ticker,
		Stock:       *stock,
		Assumptions: a,
		Result:      result,
		CreatedAt:   time.Now(),
	}, nil
}

// Job is one ticker to value in ValueAll.
type Job struct {
	Ticker      string
	Assumptions model.Assumptions
}

// Outcome is the result of one Job; exactly one of Valuation and Err is set.
type Outcome struct {
	Ticker    string
	Valuation *model.Valuation
	Err       error
}

// ValueAll values every job concurrently. A failing ticker does not stop the
// others; outcomes are returned in job order.
func (c *Collector) ValueAll(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Parallelism)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			v, err := c.Value(gctx, job.Ticker, job.Assumptions)
			out[i] = Outcome{Ticker: strings.ToUpper(job.Ticker), Valuation: v, Err: err}
			if err != nil {
				c.log.Warn().Err(err).Str("ticker", job.Ticker).Msg("valuation failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
