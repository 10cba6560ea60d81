package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ValueSentinel/internal/collector"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/valuation"
)

var assumptionFlags struct {
	discount    float64
	terminal    float64
	growth      float64
	growthYears []float64
}

var calcFlags struct {
	fcf    float64
	price  float64
	shares float64
}

var valueCmd = &cobra.Command{
	Use:   "value TICKER",
	Short: "Fetch a ticker and value it once",
	Long: `Fetch trailing free cash flow, price and share count for TICKER and run
the DCF model. Assumptions default to the config file; flags override them.`,
	Args: cobra.ExactArgs(1),
	RunE: runValue,
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Run the DCF model on explicit inputs",
	Args:  cobra.NoArgs,
	RunE:  runCalc,
}

func init() {
	for _, c := range []*cobra.Command{valueCmd, calcCmd} {
		addAssumptionFlags(c.Flags())
	}
	calcCmd.Flags().Float64Var(&calcFlags.fcf, "fcf", 0, "trailing twelve months free cash flow")
	calcCmd.Flags().Float64Var(&calcFlags.price, "price", 0, "current share price")
	calcCmd.Flags().Float64Var(&calcFlags.shares, "shares", 0, "shares outstanding")
	for _, name := range []string{"fcf", "price", "shares"} {
		_ = calcCmd.MarkFlagRequired(name)
	}
}

func addAssumptionFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&assumptionFlags.discount, "discount", 10, "discount rate in percent")
	fs.Float64Var(&assumptionFlags.terminal, "terminal", 2.5, "terminal growth rate in percent")
	fs.Float64Var(&assumptionFlags.growth, "growth", 10, "growth rate in percent applied to every year")
	fs.Float64SliceVar(&assumptionFlags.growthYears, "growth-years", nil, "ten comma-separated yearly growth rates in percent")
}

// applyAssumptionFlags overrides base with the flags set on cmd.
func applyAssumptionFlags(cmd *cobra.Command, base model.Assumptions) (model.Assumptions, error) {
	fs := cmd.Flags()
	if fs.Changed("growth") && fs.Changed("growth-years") {
		return base, fmt.Errorf("--growth and --growth-years are mutually exclusive")
	}
	if fs.Changed("discount") {
		base.DiscountRate = assumptionFlags.discount
	}
	if fs.Changed("terminal") {
		base.TerminalGrowthRate = assumptionFlags.terminal
	}
	if fs.Changed("growth") {
		base.Growth = model.ScalarGrowth(assumptionFlags.growth)
	}
	if fs.Changed("growth-years") {
		base.Growth = model.PerYearGrowth(assumptionFlags.growthYears...)
	}
	return base, nil
}

func runValue(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := applyAssumptionFlags(cmd, cfg.Defaults)
	if err != nil {
		return err
	}

	fetcher := collector.NewFMPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	col := collector.NewCollector(fetcher, 1, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	v, err := col.Value(ctx, args[0], a)
	if err != nil {
		return err
	}
	return printJSON(v)
}

func runCalc(cmd *cobra.Command, args []string) error {
	defaults := model.Assumptions{DiscountRate: 10, TerminalGrowthRate: 2.5, Growth: model.ScalarGrowth(10)}
	a, err := applyAssumptionFlags(cmd, defaults)
	if err != nil {
		return err
	}
	result, err := valuation.Evaluate(a.Inputs(&model.StockData{
		FreeCashFlowTTM:   calcFlags.fcf,
		CurrentPrice:      calcFlags.price,
		SharesOutstanding: calcFlags.shares,
	}))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
