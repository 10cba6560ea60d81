package collector

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
	"ValueSentinel/internal/valuation"
)

var baseAssumptions = model.Assumptions{
	DiscountRate:       10,
	TerminalGrowthRate: 2.5,
	Growth:             model.ScalarGrowth(10),
}

func TestCollector_Value(t *testing.T) {
	col := NewCollector(mockStocks("AAPL"), 0, zerolog.Nop())
	assert.Equal(t, DefaultParallelism, col.Parallelism)

	v, err := col.Value(context.Background(), "aapl", baseAssumptions)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", v.Ticker)
	_, err = uuid.Parse(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, baseAssumptions, v.Assumptions)
	assert.InDelta(t, 236.6666667, v.Result.IntrinsicValue, 1e-6)
	assert.Equal(t, model.VerdictUndervalued, v.Result.Verdict)
}

func TestCollector_ValueWrapsEngineErrors(t *testing.T) {
	col := NewCollector(mockStocks("AAPL"), 1, zerolog.Nop())
	a := baseAssumptions
	a.TerminalGrowthRate = a.DiscountRate
	_, err := col.Value(context.Background(), "AAPL", a)
	assert.ErrorIs(t, err, valuation.ErrDegenerateTerminalValue)
	assert.Contains(t, err.Error(), "value AAPL")
}

func TestCollector_ValueAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	col := NewCollector(mockStocks("A", "B", "C"), 2, zerolog.Nop())
	jobs := []Job{
		{Ticker: "a", Assumptions: baseAssumptions},
		{Ticker: "missing", Assumptions: baseAssumptions},
		{Ticker: "c", Assumptions: baseAssumptions},
	}
	out := col.ValueAll(context.Background(), jobs)
	require.Len(t, out, 3)

	assert.Equal(t, "A", out[0].Ticker)
	require.NoError(t, out[0].Err)
	assert.Equal(t, "A", out[0].Valuation.Ticker)

	assert.Equal(t, "MISSING", out[1].Ticker)
	assert.ErrorIs(t, out[1].Err, ErrTickerNotFound)
	assert.Nil(t, out[1].Valuation)

	require.NoError(t, out[2].Err)
	assert.Equal(t, "C", out[2].Valuation.Ticker)
}
