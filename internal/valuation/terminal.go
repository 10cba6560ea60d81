package valuation

import (
	"fmt"
	"math"

	"ValueSentinel/internal/model"
)

// EstimateTerminalValue applies the Gordon Growth Model to the final
// projected year and discounts the result back over the horizon.
func EstimateTerminalValue(finalFCF, r, g float64) (model.TerminalProjection, error) {
	if r <= g {
		return model.TerminalProjection{}, fmt.Errorf("%w: discount rate %v%% must exceed terminal growth rate %v%%",
			ErrDegenerateTerminalValue, r*100, g*100)
	}
	next := finalFCF * (1 + g)
	tv := next / (r - g)
	factor := math.Pow(1+r, Horizon)
	discounted := tv / factor
	if !finite(tv) || !finite(factor) || factor == 0 || !finite(discounted) {
		return model.TerminalProjection{}, fmt.Errorf("%w: terminal value overflowed (value %v, discount factor %v)",
			ErrInvalidInput, tv, factor)
	}
	return model.TerminalProjection{
		FCF:                     next,
		TerminalValue:           tv,
		DiscountedTerminalValue: discounted,
	}, nil
}
