package analysts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// loanTermMonths is the fixed 5-year amortization term.
const loanTermMonths = 60

// PricingAnalyst produces the risk-adjusted pricing stage analysis.
type PricingAnalyst struct {
	gateway domain.Gateway
	rng     *rand.Rand
}

// NewPricingAnalyst returns a pricing analyst. The rand source supplies the
// simulated market base rate.
func NewPricingAnalyst(gw domain.Gateway, rng *rand.Rand) *PricingAnalyst {
	return &PricingAnalyst{gateway: gw, rng: rng}
}

type pricingGatewayResponse struct {
	Recommendation string `json:"recommendation"`
}

// Analyze prices the loan from the modeled risk: market base rate plus a
// premium proportional to the probability of default, then a standard
// 60-month amortized payment.
func (a *PricingAnalyst) Analyze(ctx context.Context, app *domain.LoanApplication, strategy domain.RiskStrategy, risk *domain.RiskAnalysis) (*domain.PricingAnalysis, error) {
	baseRate := 5.5 + a.rng.Float64()*0.5

	// ProbabilityOfDefault is stored as a percentage.
	pdMultiplier := risk.ProbabilityOfDefault / 5
	riskPremium := pdMultiplier * strategy.RiskPremiumMultiplier * 100

	finalRate := math.Round((baseRate+riskPremium)*100) / 100

	monthlyRate := finalRate / 100 / 12
	growth := math.Pow(1+monthlyRate, loanTermMonths)
	monthlyPayment := math.Round(app.RequestedAmount * monthlyRate * growth / (growth - 1))

	recommendation := "Pricing reflects risk profile"
	switch {
	case finalRate > 15:
		recommendation = "Rate exceeds typical market tolerance - consider decline"
	case finalRate > 10:
		recommendation = "Elevated rate - ensure borrower capacity"
	}

	analysis := &domain.PricingAnalysis{
		BaseRate:       math.Round(baseRate*100) / 100,
		RiskPremium:    math.Round(riskPremium*100) / 100,
		FinalRate:      finalRate,
		MonthlyPayment: monthlyPayment,
		Recommendation: recommendation,
	}

	raw, err := a.gateway.Analyze(ctx, domain.AgentRequest{
		AgentType:   domain.StagePricing,
		Application: app,
		Strategy:    strategy,
		Previous:    map[string]any{"risk": risk},
	})
	if err != nil {
		return nil, fmt.Errorf("pricing gateway call failed: %w", err)
	}

	var resp pricingGatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("pricing gateway returned malformed JSON: %w", err)
	}
	analysis.Recommendation = mergeText(resp.Recommendation, analysis.Recommendation)

	return analysis, nil
}
