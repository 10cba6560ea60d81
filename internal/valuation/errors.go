package valuation

import "errors"

var (
	// ErrInvalidInput reports a non-positive cash flow, price or share count,
	// or a rate that cannot produce a finite valuation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidGrowthSchedule reports a per-year growth schedule whose
	// length differs from the projection horizon.
	ErrInvalidGrowthSchedule = errors.New("invalid growth schedule")
	// ErrDegenerateTerminalValue reports a discount rate that does not
	// exceed the terminal growth rate.
	ErrDegenerateTerminalValue = errors.New("degenerate terminal value")
)

// Kind returns a stable name for the engine error wrapped in err,
// or "" if err did not come from the engine.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrInvalidGrowthSchedule):
		return "InvalidGrowthSchedule"
	case errors.Is(err, ErrDegenerateTerminalValue):
		return "DegenerateTerminalValue"
	default:
		return ""
	}
}
