package valuation

import (
	"fmt"
	"math"

	"ValueSentinel/internal/model"
)

// Aggregate sums the discounted cash flows and terminal value into a per-share
// intrinsic value and compares it with the current price.
func Aggregate(years []model.YearlyProjection, terminal model.TerminalProjection, sharesOutstanding, currentPrice float64) (*model.ValuationResult, error) {
	if !(sharesOutstanding > 0) || math.IsInf(sharesOutstanding, 0) {
		return nil, fmt.Errorf("%w: shares outstanding must be positive, got %v", ErrInvalidInput, sharesOutstanding)
	}
	if !(currentPrice > 0) || math.IsInf(currentPrice, 0) {
		return nil, fmt.Errorf("%w: current price must be positive, got %v", ErrInvalidInput, currentPrice)
	}

	var pv float64
	for _, y := range years {
		pv += y.DiscountedValue
	}
	total := pv + terminal.DiscountedTerminalValue
	intrinsic := total / sharesOutstanding
	diff := (intrinsic - currentPrice) / currentPrice * 100
	if !finite(intrinsic) || !finite(diff) {
		return nil, fmt.Errorf("%w: valuation overflowed (intrinsic value %v)", ErrInvalidInput, intrinsic)
	}

	return &model.ValuationResult{
		IntrinsicValue:       intrinsic,
		CurrentPrice:         currentPrice,
		PercentageDifference: diff,
		Verdict:              Classify(diff),
		Details: model.ValuationDetails{
			YearlyData:        years,
			TerminalYear:      terminal,
			PresentValueOfFCF: pv,
			TotalPresentValue: total,
			SharesOutstanding: sharesOutstanding,
		},
	}, nil
}

// Classify maps a percentage difference to a verdict. Only a strictly
// positive difference is undervalued; zero counts as overvalued.
func Classify(percentageDifference float64) model.Verdict {
	if percentageDifference > 0 {
		return model.VerdictUndervalued
	}
	return model.VerdictOvervalued
}
