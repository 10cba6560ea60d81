package model

import "time"

// Verdict classifies a stock against its intrinsic value.
type Verdict string

const (
	VerdictUndervalued Verdict = "Undervalued"
	VerdictOvervalued  Verdict = "Overvalued"
)

// ValuationInputs are the caller-supplied inputs of a DCF run.
// Rates are percentages (10 means 10%).
type ValuationInputs struct {
	FreeCashFlowTTM    float64     `json:"freeCashFlowTTM"`
	CurrentPrice       float64     `json:"currentPrice"`
	SharesOutstanding  float64     `json:"sharesOutstanding"`
	DiscountRate       float64     `json:"discountRate"`
	TerminalGrowthRate float64     `json:"terminalGrowthRate"`
	Growth             GrowthInput `json:"growthRates"`
}

// YearlyProjection is one year of the explicit forecast horizon.
type YearlyProjection struct {
	Year            int     `json:"year"`
	FCF             float64 `json:"fcf"`
	GrowthRate      float64 `json:"growthRate"` // percent
	DiscountFactor  float64 `json:"discountFactor"`
	DiscountedValue float64 `json:"discountedValue"`
}

// TerminalProjection values the cash flows beyond the horizon.
type TerminalProjection struct {
	FCF                     float64 `json:"fcf"`
	TerminalValue           float64 `json:"terminalValue"`
	DiscountedTerminalValue float64 `json:"discountedTerminalValue"`
}

// ValuationDetails is the full breakdown behind a ValuationResult.
type ValuationDetails struct {
	YearlyData        []YearlyProjection `json:"yearlyData"`
	TerminalYear      TerminalProjection `json:"terminalYear"`
	PresentValueOfFCF float64            `json:"presentValueOfFCF"`
	TotalPresentValue float64            `json:"totalPresentValue"`
	SharesOutstanding float64            `json:"sharesOutstanding"`
}

// ValuationResult is the output of the valuation engine.
type ValuationResult struct {
	IntrinsicValue       float64          `json:"intrinsicValue"`
	CurrentPrice         float64          `json:"currentPrice"`
	PercentageDifference float64          `json:"percentageDifference"`
	Verdict              Verdict          `json:"verdict"`
	DiscountRate         float64          `json:"discountRate"`       // percent
	TerminalGrowthRate   float64          `json:"terminalGrowthRate"` // percent
	Details              ValuationDetails `json:"calculationDetails"`
}

// Assumptions are the user-chosen parts of ValuationInputs.
type Assumptions struct {
	DiscountRate       float64     `json:"discountRate" yaml:"discount_rate"`
	TerminalGrowthRate float64     `json:"terminalGrowthRate" yaml:"terminal_growth_rate"`
	Growth             GrowthInput `json:"growthRates" yaml:"growth"`
}

// Equal reports whether a and o would produce the same valuation of a stock.
func (a Assumptions) Equal(o Assumptions) bool {
	return a.DiscountRate == o.DiscountRate &&
		a.TerminalGrowthRate == o.TerminalGrowthRate &&
		a.Growth.Equal(o.Growth)
}

// Inputs combines the assumptions with fetched stock data.
func (a Assumptions) Inputs(stock *StockData) ValuationInputs {
	return ValuationInputs{
		FreeCashFlowTTM:    stock.FreeCashFlowTTM,
		CurrentPrice:       stock.CurrentPrice,
		SharesOutstanding:  stock.SharesOutstanding,
		DiscountRate:       a.DiscountRate,
		TerminalGrowthRate: a.TerminalGrowthRate,
		Growth:             a.Growth,
	}
}

// Valuation is one recorded valuation run for a ticker.
type Valuation struct {
	ID          string           `json:"id"`
	Ticker      string           `json:"ticker"`
	Stock       StockData        `json:"stock"`
	Assumptions Assumptions      `json:"assumptions"`
	Result      *ValuationResult `json:"result"`
	CreatedAt   time.Time        `json:"createdAt"`
}
