package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"ValueSentinel/internal/model"
)

// FormatValuationReport formats a valuation run into a Telegram message.
func FormatValuationReport(v *model.Valuation) string {
	var b strings.Builder
	res := v.Result
	d := res.Details

	b.WriteString(fmt.Sprintf("📊 <b>DCF %s</b> | %s\n\n", html.EscapeString(v.Ticker), v.CreatedAt.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("FCF (TTM): %s\n", money(v.Stock.FreeCashFlowTTM)))
	b.WriteString(fmt.Sprintf("Shares outstanding: %s\n", humanize.Comma(int64(math.Round(d.SharesOutstanding)))))
	if v.Stock.MarketCap > 0 {
		b.WriteString(fmt.Sprintf("Market cap: %s\n", money(v.Stock.MarketCap)))
	}
	b.WriteString(fmt.Sprintf("Discount rate: %.2f%% | Terminal growth: %.2f%%\n", res.DiscountRate, res.TerminalGrowthRate))
	b.WriteString(fmt.Sprintf("Growth: %s\n\n", html.EscapeString(v.Assumptions.Growth.String())))

	b.WriteString("📈 <b>Projection:</b>\n")
	for _, y := range d.YearlyData {
		b.WriteString(fmt.Sprintf("  Y%-2d %+.1f%%  FCF %s  PV %s\n", y.Year, y.GrowthRate, money(y.FCF), money(y.DiscountedValue)))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  PV of FCF: %s\n", money(d.PresentValueOfFCF)))
	b.WriteString(fmt.Sprintf("  Terminal value: %s (PV %s)\n", money(d.TerminalYear.TerminalValue), money(d.TerminalYear.DiscountedTerminalValue)))
	b.WriteString(fmt.Sprintf("  Total PV: %s\n\n", money(d.TotalPresentValue)))

	b.WriteString(fmt.Sprintf("💰 <b>Intrinsic value:</b> %.2f\n", res.IntrinsicValue))
	b.WriteString(fmt.Sprintf("   Current price: %.2f (%+.1f%%)\n", res.CurrentPrice, res.PercentageDifference))
	b.WriteString(fmt.Sprintf("   Verdict: %s %s\n", verdictIcon(res.Verdict), res.Verdict))
	return b.String()
}

// FormatVerdictChange formats an alert for a watched ticker whose verdict flipped.
func FormatVerdictChange(v *model.Valuation, from model.Verdict) string {
	res := v.Result
	return fmt.Sprintf("🔔 <b>%s verdict changed</b>\n\n%s → %s %s\nIntrinsic value: %.2f\nCurrent price: %.2f (%+.1f%%)",
		html.EscapeString(v.Ticker), from, verdictIcon(res.Verdict), res.Verdict,
		res.IntrinsicValue, res.CurrentPrice, res.PercentageDifference)
}

// FormatWatchlist formats the watchlist with the last known verdicts.
func FormatWatchlist(items []model.WatchItem) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Watchlist</b> | %s\n\n", time.Now().Format("2006-01-02")))
	if len(items) == 0 {
		b.WriteString("Empty. Use /add TICKER to start tracking.")
		return b.String()
	}
	for _, it := range items {
		if it.LastVerdict == "" {
			b.WriteString(fmt.Sprintf("%s: not valued yet\n", html.EscapeString(it.Ticker)))
			continue
		}
		diff := 0.0
		if it.LastPrice > 0 {
			diff = (it.LastIntrinsicValue - it.LastPrice) / it.LastPrice * 100
		}
		b.WriteString(fmt.Sprintf("%s %s: IV %.2f vs %.2f (%+.1f%%), %s\n",
			verdictIcon(it.LastVerdict), html.EscapeString(it.Ticker), it.LastIntrinsicValue, it.LastPrice, diff,
			humanize.Time(it.LastCheckedAt)))
	}
	return b.String()
}

func verdictIcon(v model.Verdict) string {
	if v == model.VerdictUndervalued {
		return "🟢"
	}
	return "🔴"
}

// money renders large amounts with SI suffixes and small ones with separators.
func money(v float64) string {
	if math.Abs(v) >= 1e6 {
		value, prefix := humanize.ComputeSI(v)
		return fmt.Sprintf("%s%s", humanize.FtoaWithDigits(value, 2), prefix)
	}
	return humanize.CommafWithDigits(v, 2)
}
