package valuation

import (
	"fmt"
	"math"

	"ValueSentinel/internal/model"
)

// ProjectCashFlows compounds fcfTTM forward over the horizon and discounts
// each year at rate r. Each year grows the previous year's projection, not
// the trailing figure.
func ProjectCashFlows(fcfTTM, r float64, growth Schedule) ([]model.YearlyProjection, error) {
	if !(fcfTTM > 0) || math.IsInf(fcfTTM, 0) {
		return nil, fmt.Errorf("%w: free cash flow TTM must be positive, got %v", ErrInvalidInput, fcfTTM)
	}
	if !(1+r > 0) {
		return nil, fmt.Errorf("%w: discount rate must exceed -100%%, got %v%%", ErrInvalidInput, r*100)
	}

	years := make([]model.YearlyProjection, Horizon)
	current := fcfTTM
	for i := 0; i < Horizon; i++ {
		year := i + 1
		projected := current * (1 + growth[i])
		factor := math.Pow(1+r, float64(year))
		if !finite(projected) || !finite(factor) || factor == 0 {
			return nil, fmt.Errorf("%w: year %d projection overflowed (fcf %v, discount factor %v)",
				ErrInvalidInput, year, projected, factor)
		}
		years[i] = model.YearlyProjection{
			Year:            year,
			FCF:             projected,
			GrowthRate:      growth[i] * 100,
			DiscountFactor:  factor,
			DiscountedValue: projected / factor,
		}
		current = projected
	}
	return years, nil
}
