package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// GrowthKind tells how a GrowthInput was supplied.
type GrowthKind int

const (
	// GrowthScalar applies one rate to every projected year.
	GrowthScalar GrowthKind = iota
	// GrowthPerYear supplies one rate per projected year.
	GrowthPerYear
)

func (k GrowthKind) String() string {
	if k == GrowthPerYear {
		return "per_year"
	}
	return "scalar"
}

// GrowthInput is the growth assumption as entered by the user, in percent.
// It is either a single rate or a per-year sequence; the valuation engine
// resolves it into a fixed-length schedule.
type GrowthInput struct {
	Kind  GrowthKind
	Rate  float64   // set when Kind == GrowthScalar
	Rates []float64 // set when Kind == GrowthPerYear
}

// ScalarGrowth returns a growth input applying rate (percent) to every year.
func ScalarGrowth(rate float64) GrowthInput {
	return GrowthInput{Kind: GrowthScalar, Rate: rate}
}

// PerYearGrowth returns a growth input with one rate (percent) per year.
func PerYearGrowth(rates ...float64) GrowthInput {
	cp := make([]float64, len(rates))
	copy(cp, rates)
	return GrowthInput{Kind: GrowthPerYear, Rates: cp}
}

// Equal reports whether g and o describe the same growth assumption.
func (g GrowthInput) Equal(o GrowthInput) bool {
	if g.Kind != o.Kind {
		return false
	}
	if g.Kind != GrowthPerYear {
		return g.Rate == o.Rate
	}
	if len(g.Rates) != len(o.Rates) {
		return false
	}
	for i := range g.Rates {
		if g.Rates[i] != o.Rates[i] {
			return false
		}
	}
	return true
}

func (g GrowthInput) String() string {
	if g.Kind == GrowthPerYear {
		return fmt.Sprintf("%v%%", g.Rates)
	}
	return fmt.Sprintf("%g%%", g.Rate)
}

// MarshalJSON encodes a scalar as a bare number and a per-year input as an array.
func (g GrowthInput) MarshalJSON() ([]byte, error) {
	if g.Kind == GrowthPerYear {
		if g.Rates == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(g.Rates)
	}
	return json.Marshal(g.Rate)
}

// UnmarshalJSON accepts either a number or an array of numbers. null leaves
// g unchanged.
func (g *GrowthInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var rates []float64
		if err := json.Unmarshal(data, &rates); err != nil {
			return fmt.Errorf("growth: %w", err)
		}
		*g = PerYearGrowth(rates...)
		return nil
	}
	var rate float64
	if err := json.Unmarshal(data, &rate); err != nil {
		return fmt.Errorf("growth: expected number or array: %w", err)
	}
	*g = ScalarGrowth(rate)
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (g GrowthInput) MarshalYAML() (interface{}, error) {
	if g.Kind == GrowthPerYear {
		return g.Rates, nil
	}
	return g.Rate, nil
}

// UnmarshalYAML accepts either a scalar or a sequence node.
func (g *GrowthInput) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var rates []float64
		if err := node.Decode(&rates); err != nil {
			return fmt.Errorf("growth: %w", err)
		}
		*g = PerYearGrowth(rates...)
	case yaml.ScalarNode:
		var rate float64
		if err := node.Decode(&rate); err != nil {
			return fmt.Errorf("growth: %w", err)
		}
		*g = ScalarGrowth(rate)
	default:
		return fmt.Errorf("growth: expected number or list at line %d", node.Line)
	}
	return nil
}
