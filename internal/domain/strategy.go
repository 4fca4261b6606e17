package domain

import "fmt"

// RiskStrategy is a named threshold profile governing approval strictness.
// Selected once per run and applied uniformly to all downstream checks.
type RiskStrategy struct {
	Name                  string  `json:"name"`
	MinFICO               int     `json:"minFICO"`
	MaxDTI                float64 `json:"maxDTI"`
	MaxPD                 float64 `json:"maxPD"`
	RiskPremiumMultiplier float64 `json:"riskPremiumMultiplier"`
}

// Canonical strategy names.
const (
	StrategyConservative = "conservative"
	StrategyModerate     = "moderate"
	StrategyAggressive   = "aggressive"
)

var riskStrategies = map[string]RiskStrategy{
	StrategyConservative: {
		Name:                  "Conservative",
		MinFICO:               720,
		MaxDTI:                35,
		MaxPD:                 0.03,
		RiskPremiumMultiplier: 1.5,
	},
	StrategyModerate: {
		Name:                  "Moderate",
		MinFICO:               680,
		MaxDTI:                43,
		MaxPD:                 0.05,
		RiskPremiumMultiplier: 1.2,
	},
	StrategyAggressive: {
		Name:                  "Aggressive",
		MinFICO:               620,
		MaxDTI:                50,
		MaxPD:                 0.08,
		RiskPremiumMultiplier: 1.0,
	},
}

// StrategyByName returns the named strategy. The empty string selects moderate.
func StrategyByName(name string) (RiskStrategy, error) {
	if name == "" {
		name = StrategyModerate
	}
	s, ok := riskStrategies[name]
	if !ok {
		return RiskStrategy{}, fmt.Errorf("unknown risk strategy: %q", name)
	}
	return s, nil
}

// Strategies returns all configured strategies keyed by selector name.
func Strategies() map[string]RiskStrategy {
	out := make(map[string]RiskStrategy, len(riskStrategies))
	for k, v := range riskStrategies {
		out[k] = v
	}
	return out
}
