package valuation

import (
	"fmt"
	"math"

	"ValueSentinel/internal/model"
)

// Horizon is the number of explicitly projected years.
const Horizon = 10

// Schedule holds one fractional growth rate per projected year.
type Schedule [Horizon]float64

// Rates are the fractional rates a valuation runs on.
type Rates struct {
	Discount       float64 // r
	TerminalGrowth float64 // g
	Growth         Schedule
}

// NormalizeRates converts percentage inputs to fractions and resolves the
// growth input into a full schedule. Whether r exceeds g is checked later,
// by EstimateTerminalValue.
func NormalizeRates(discountRate, terminalGrowthRate float64, growth model.GrowthInput) (Rates, error) {
	if !finite(discountRate) {
		return Rates{}, fmt.Errorf("%w: discount rate %v", ErrInvalidInput, discountRate)
	}
	if !finite(terminalGrowthRate) {
		return Rates{}, fmt.Errorf("%w: terminal growth rate %v", ErrInvalidInput, terminalGrowthRate)
	}

	var s Schedule
	switch growth.Kind {
	case model.GrowthScalar:
		if !finite(growth.Rate) {
			return Rates{}, fmt.Errorf("%w: growth rate %v", ErrInvalidInput, growth.Rate)
		}
		for i := range s {
			s[i] = growth.Rate / 100
		}
	case model.GrowthPerYear:
		if len(growth.Rates) != Horizon {
			return Rates{}, fmt.Errorf("%w: need %d yearly rates, got %d", ErrInvalidGrowthSchedule, Horizon, len(growth.Rates))
		}
		for i, rate := range growth.Rates {
			if !finite(rate) {
				return Rates{}, fmt.Errorf("%w: growth rate for year %d is %v", ErrInvalidInput, i+1, rate)
			}
			s[i] = rate / 100
		}
	default:
		return Rates{}, fmt.Errorf("%w: unknown growth kind %d", ErrInvalidGrowthSchedule, growth.Kind)
	}

	return Rates{
		Discount:       discountRate / 100,
		TerminalGrowth: terminalGrowthRate / 100,
		Growth:         s,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckAssumptions reports whether a would be accepted by Evaluate for any
// valid stock: the growth input resolves to a full schedule and the
// discount rate exceeds the terminal growth rate.
func CheckAssumptions(a model.Assumptions) error {
	rates, err := NormalizeRates(a.DiscountRate, a.TerminalGrowthRate, a.Growth)
	if err != nil {
		return err
	}
	if !(1+rates.Discount > 0) {
		return fmt.Errorf("%w: discount rate must exceed -100%%, got %v%%", ErrInvalidInput, a.DiscountRate)
	}
	if rates.Discount <= rates.TerminalGrowth {
		return fmt.Errorf("%w: discount rate %v%% must exceed terminal growth rate %v%%",
			ErrDegenerateTerminalValue, a.DiscountRate, a.TerminalGrowthRate)
	}
	return nil
}
