// Package analysts implements the five committee stages. Each analyst owns
// its deterministic figures and merges only qualitative fields from the
// gateway response.
package analysts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/opensource-finance/kestrel/internal/behavioral"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/industry"
	"github.com/opensource-finance/kestrel/internal/scoring"
	"github.com/opensource-finance/kestrel/internal/trajectory"
)

// maxAIAdjustment bounds how far the gateway may move the preliminary score.
const maxAIAdjustment = 20

// CreditAnalyst produces the credit stage analysis.
type CreditAnalyst struct {
	gateway domain.Gateway
	logger  *slog.Logger
}

// NewCreditAnalyst returns a credit analyst backed by the given gateway.
func NewCreditAnalyst(gw domain.Gateway, logger *slog.Logger) *CreditAnalyst {
	return &CreditAnalyst{gateway: gw, logger: logger}
}

type creditGatewayResponse struct {
	FICOScore      *float64 `json:"ficoScore"`
	CreditHistory  string   `json:"creditHistory"`
	PaymentHistory string   `json:"paymentHistory"`
	Recommendation string   `json:"recommendation"`
}

// Analyze computes the full deterministic credit picture, then merges the
// gateway's qualitative assessment. The returned score never strays more than
// maxAIAdjustment points from the preliminary score.
func (a *CreditAnalyst) Analyze(ctx context.Context, app *domain.LoanApplication, strategy domain.RiskStrategy) (*domain.CreditAnalysis, error) {
	components := scoring.Components(app)
	preliminary := scoring.PreliminaryFICO(components)

	analysis := &domain.CreditAnalysis{
		FICOScore:          preliminary,
		PreliminaryFICO:    preliminary,
		FICOComponents:     components,
		WhatIfScenarios:    scoring.WhatIfScenarios(app, preliminary),
		IndustryAnalysis:   industry.Analyze(app, preliminary),
		Trajectory:         trajectory.Project(app, preliminary, components),
		BehavioralAnalysis: behavioral.Analyze(app),
		CreditUtilization:  int(math.Round(app.DTI())),
	}

	raw, err := a.gateway.Analyze(ctx, domain.AgentRequest{
		AgentType:   domain.StageCredit,
		Application: app,
		Strategy:    strategy,
	})
	if err != nil {
		return nil, fmt.Errorf("credit gateway call failed: %w", err)
	}

	var resp creditGatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("credit gateway returned malformed JSON: %w", err)
	}

	if resp.FICOScore != nil {
		analysis.FICOScore = a.clampAdjusted(int(math.Round(*resp.FICOScore)), preliminary)
		analysis.AIAdjustment = analysis.FICOScore - preliminary
	}

	history, payment, recommendation := creditNarrative(analysis.FICOScore)
	analysis.CreditHistory = mergeText(resp.CreditHistory, history)
	analysis.PaymentHistory = mergeText(resp.PaymentHistory, payment)
	analysis.Recommendation = mergeText(resp.Recommendation, recommendation)

	return analysis, nil
}

// clampAdjusted bounds the gateway score to the allowed band around the
// preliminary score and to the FICO range.
func (a *CreditAnalyst) clampAdjusted(score, preliminary int) int {
	low := preliminary - maxAIAdjustment
	high := preliminary + maxAIAdjustment
	clamped := score
	if clamped < low {
		clamped = low
	}
	if clamped > high {
		clamped = high
	}
	if clamped < 300 {
		clamped = 300
	}
	if clamped > 850 {
		clamped = 850
	}
	if clamped != score && a.logger != nil {
		a.logger.Warn("gateway FICO score outside adjustment band, clamped",
			"returned", score,
			"preliminary", preliminary,
			"clamped", clamped)
	}
	return clamped
}

// creditNarrative maps a score to the default qualitative assessment, used
// when the gateway omits a field.
func creditNarrative(fico int) (history, payment, recommendation string) {
	switch {
	case fico < 620:
		return "Multiple delinquencies detected", "Poor",
			"High risk - consider declining or enhanced terms"
	case fico < 680:
		return "Some late payments in history", "Fair",
			"Moderate risk - additional documentation recommended"
	case fico < 740:
		return "Generally positive credit history", "Good",
			"Standard terms applicable"
	default:
		return "Strong credit profile with consistent payments", "Excellent",
			"Proceed with standard underwriting"
	}
}

func mergeText(fromGateway, fallback string) string {
	if fromGateway != "" {
		return fromGateway
	}
	return fallback
}
