package analysts

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// ComplianceAnalyst runs the simulated KYC, AML, and sanctions screens.
type ComplianceAnalyst struct {
	gateway domain.Gateway
	rng     *rand.Rand
}

// NewComplianceAnalyst returns a compliance analyst driven by the given
// rand source.
func NewComplianceAnalyst(gw domain.Gateway, rng *rand.Rand) *ComplianceAnalyst {
	return &ComplianceAnalyst{gateway: gw, rng: rng}
}

type complianceGatewayResponse struct {
	Recommendation string `json:"recommendation"`
}

// Analyze simulates the three compliance screens. Pass rates follow observed
// production base rates: 90% KYC, 95% AML, 98% sanctions.
func (a *ComplianceAnalyst) Analyze(ctx context.Context, app *domain.LoanApplication, strategy domain.RiskStrategy) (*domain.ComplianceCheck, error) {
	check := &domain.ComplianceCheck{
		KYCVerified:      a.rng.Float64() > 0.1,
		AMLCleared:       a.rng.Float64() > 0.05,
		SanctionsCleared: a.rng.Float64() > 0.02,
	}

	check.DocumentVerification = "All documents verified and authentic"
	check.Recommendation = "Clear for processing"
	switch {
	case !check.KYCVerified:
		check.DocumentVerification = "Identity verification failed - additional documentation required"
		check.Recommendation = "Hold pending identity verification"
	case !check.AMLCleared:
		check.DocumentVerification = "AML flag triggered - enhanced due diligence required"
		check.Recommendation = "Escalate to compliance team"
	case !check.SanctionsCleared:
		check.DocumentVerification = "Sanctions screening match detected"
		check.Recommendation = "Immediate escalation required"
	}

	raw, err := a.gateway.Analyze(ctx, domain.AgentRequest{
		AgentType:   domain.StageCompliance,
		Application: app,
		Strategy:    strategy,
	})
	if err != nil {
		return nil, fmt.Errorf("compliance gateway call failed: %w", err)
	}

	var resp complianceGatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("compliance gateway returned malformed JSON: %w", err)
	}
	check.Recommendation = mergeText(resp.Recommendation, check.Recommendation)

	return check, nil
}
