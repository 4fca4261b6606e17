package analysts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensource-finance/kestrel/internal/committee"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// ChairAnalyst synthesizes the final committee decision. The decision,
// approved amount, and conditions come from the gate engine; only the summary
// text may be enriched by the gateway.
type ChairAnalyst struct {
	gateway     domain.Gateway
	synthesizer *committee.Synthesizer
}

// NewChairAnalyst returns a chair analyst around a synthesizer.
func NewChairAnalyst(gw domain.Gateway, s *committee.Synthesizer) *ChairAnalyst {
	return &ChairAnalyst{gateway: gw, synthesizer: s}
}

type chairGatewayResponse struct {
	Summary string `json:"summary"`
}

// Analyze runs the committee gates over the collected stage outputs and
// produces the final decision.
func (a *ChairAnalyst) Analyze(ctx context.Context, input *committee.DecisionInput) (*domain.CommitteeDecision, error) {
	decision, err := a.synthesizer.Decide(input)
	if err != nil {
		return nil, err
	}

	raw, err := a.gateway.Analyze(ctx, domain.AgentRequest{
		AgentType:   domain.StageChair,
		Application: input.Application,
		Strategy:    input.Strategy,
		Previous: map[string]any{
			"credit":     input.Credit,
			"risk":       input.Risk,
			"compliance": input.Compliance,
			"pricing":    input.Pricing,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chair gateway call failed: %w", err)
	}

	var resp chairGatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("chair gateway returned malformed JSON: %w", err)
	}
	decision.Summary = mergeText(resp.Summary, decision.Summary)

	return decision, nil
}
