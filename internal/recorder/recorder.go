package recorder

import (
	"time"

	"ValueSentinel/internal/model"
)

// VerdictChange records a watched ticker flipping between verdicts.
type VerdictChange struct {
	ValuationID    string
	Ticker         string
	From           model.Verdict
	To             model.Verdict
	IntrinsicValue float64
	Price          float64
}

// HistoryEntry is a recorded valuation as read back for display.
type HistoryEntry struct {
	ID                   string        `json:"id"`
	Ticker               string        `json:"ticker"`
	RecordedAt           time.Time     `json:"recordedAt"`
	FreeCashFlowTTM      float64       `json:"freeCashFlowTTM"`
	CurrentPrice         float64       `json:"currentPrice"`
	SharesOutstanding    float64       `json:"sharesOutstanding"`
	DiscountRate         float64       `json:"discountRate"`
	TerminalGrowthRate   float64       `json:"terminalGrowthRate"`
	IntrinsicValue       float64       `json:"intrinsicValue"`
	PercentageDifference float64       `json:"percentageDifference"`
	Verdict              model.Verdict `json:"verdict"`
}

// Recorder persists valuation history for analysis.
type Recorder interface {
	RecordValuation(v *model.Valuation) error
	RecordVerdictChange(evt *VerdictChange) error
	History(ticker string, limit int) ([]HistoryEntry, error)
	Close() error
}
