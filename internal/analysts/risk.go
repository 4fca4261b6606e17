package analysts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// RiskAnalyst produces the PD/LGD risk stage analysis.
type RiskAnalyst struct {
	gateway domain.Gateway
	rng     *rand.Rand
}

// NewRiskAnalyst returns a risk analyst. The rand source supplies the market
// jitter applied to the modeled figures.
func NewRiskAnalyst(gw domain.Gateway, rng *rand.Rand) *RiskAnalyst {
	return &RiskAnalyst{gateway: gw, rng: rng}
}

type riskGatewayResponse struct {
	Recommendation string `json:"recommendation"`
}

// Analyze models probability of default, loss given default, and expected
// loss for the application given the upstream credit analysis.
func (a *RiskAnalyst) Analyze(ctx context.Context, app *domain.LoanApplication, strategy domain.RiskStrategy, credit *domain.CreditAnalysis) (*domain.RiskAnalysis, error) {
	ficoFactor := float64(850-credit.FICOScore) / 550
	dtiRatio := app.ExistingDebt / app.AnnualIncome
	ltvFactor := app.RequestedAmount / (app.AnnualIncome * 3)

	basePD := 0.01 + ficoFactor*0.08 + dtiRatio*0.05 + ltvFactor*0.03
	pd := basePD + (a.rng.Float64()-0.5)*0.02
	pd = math.Min(0.35, math.Max(0.005, pd))

	// Unsecured lending typically recovers 40-60% of exposure.
	lgd := 0.45 + a.rng.Float64()*0.15

	expectedLoss := pd * lgd * app.RequestedAmount

	rating := domain.RiskLow
	recommendation := "Risk within acceptable parameters"
	switch {
	case pd > 0.15:
		rating = domain.RiskVeryHigh
		recommendation = "Exceeds risk tolerance - recommend decline"
	case pd > strategy.MaxPD:
		rating = domain.RiskHigh
		recommendation = "Above strategy threshold - enhanced pricing required"
	case pd > 0.03:
		rating = domain.RiskMedium
		recommendation = "Moderate risk - standard pricing with monitoring"
	}

	analysis := &domain.RiskAnalysis{
		ProbabilityOfDefault: math.Round(pd*10000) / 100,
		LossGivenDefault:     math.Round(lgd * 100),
		ExpectedLoss:         math.Round(expectedLoss),
		RiskRating:           rating,
		Recommendation:       recommendation,
	}

	raw, err := a.gateway.Analyze(ctx, domain.AgentRequest{
		AgentType:   domain.StageRisk,
		Application: app,
		Strategy:    strategy,
		Previous:    map[string]any{"credit": credit},
	})
	if err != nil {
		return nil, fmt.Errorf("risk gateway call failed: %w", err)
	}

	var resp riskGatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("risk gateway returned malformed JSON: %w", err)
	}
	analysis.Recommendation = mergeText(resp.Recommendation, analysis.Recommendation)

	return analysis, nil
}
