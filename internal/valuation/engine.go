// Package valuation implements the discounted cash flow engine. It is pure:
// no I/O, no logging, no shared state.
package valuation

import "ValueSentinel/internal/model"

// Evaluate runs the full DCF pipeline on in.
func Evaluate(in model.ValuationInputs) (*model.ValuationResult, error) {
	// Step a: fractional rates and a full growth schedule
	rates, err := NormalizeRates(in.DiscountRate, in.TerminalGrowthRate, in.Growth)
	if err != nil {
		return nil, err
	}

	// Step b: explicit horizon
	years, err := ProjectCashFlows(in.FreeCashFlowTTM, rates.Discount, rates.Growth)
	if err != nil {
		return nil, err
	}

	// Step c: beyond the horizon
	terminal, err := EstimateTerminalValue(years[Horizon-1].FCF, rates.Discount, rates.TerminalGrowth)
	if err != nil {
		return nil, err
	}

	// Step d: per share and verdict
	result, err := Aggregate(years, terminal, in.SharesOutstanding, in.CurrentPrice)
	if err != nil {
		return nil, err
	}
	result.DiscountRate = in.DiscountRate
	result.TerminalGrowthRate = in.TerminalGrowthRate
	return result, nil
}
