// Package committee aggregates the analyst stage outputs into a final
// committee decision by running them through the gate engine.
package committee

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/rules"
)

// Synthesizer turns analyst outputs into a committee decision.
type Synthesizer struct {
	engine *rules.Engine
}

// NewSynthesizer builds a synthesizer around the standard committee gates.
func NewSynthesizer() (*Synthesizer, error) {
	eng, err := rules.NewEngine(rules.CommitteeGates())
	if err != nil {
		return nil, fmt.Errorf("failed to build committee gate engine: %w", err)
	}
	return &Synthesizer{engine: eng}, nil
}

// NewSynthesizerWithGates builds a synthesizer with a custom gate list.
func NewSynthesizerWithGates(gates []rules.GateConfig) (*Synthesizer, error) {
	eng, err := rules.NewEngine(gates)
	if err != nil {
		return nil, fmt.Errorf("failed to build committee gate engine: %w", err)
	}
	return &Synthesizer{engine: eng}, nil
}

// DecisionInput carries everything the committee weighs.
type DecisionInput struct {
	Application *domain.LoanApplication
	Strategy    domain.RiskStrategy
	Credit      *domain.CreditAnalysis
	Risk        *domain.RiskAnalysis
	Compliance  *domain.ComplianceCheck
	Pricing     *domain.PricingAnalysis
}

// Decide evaluates the gates and synthesizes the final decision.
func (s *Synthesizer) Decide(input *DecisionInput) (*domain.CommitteeDecision, error) {
	verdict, err := s.engine.Evaluate(&rules.Input{
		FICO:              input.Credit.FICOScore,
		MinFICO:           input.Strategy.MinFICO,
		KYCVerified:       input.Compliance.KYCVerified,
		AMLCleared:        input.Compliance.AMLCleared,
		SanctionsCleared:  input.Compliance.SanctionsCleared,
		RiskRating:        input.Risk.RiskRating,
		FinalRate:         input.Pricing.FinalRate,
		CreditUtilization: float64(input.Credit.CreditUtilization),
		RequestedAmount:   input.Application.RequestedAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("committee gate evaluation failed: %w", err)
	}

	decision := &domain.CommitteeDecision{
		FinalDecision: verdict.Decision,
		Conditions:    verdict.Conditions,
	}
	if decision.Conditions == nil {
		decision.Conditions = []string{}
	}

	if verdict.Decision != domain.DecisionRejected {
		amount := math.Round(input.Application.RequestedAmount * verdict.ApprovedFactor)
		decision.ApprovedAmount = &amount
	}

	decision.Summary = s.summarize(decision, input)
	return decision, nil
}

func (s *Synthesizer) summarize(decision *domain.CommitteeDecision, input *DecisionInput) string {
	switch decision.FinalDecision {
	case domain.DecisionRejected:
		if !input.Compliance.Passed() {
			return "Application rejected due to compliance concerns. " + input.Compliance.Recommendation
		}
		return fmt.Sprintf(
			"Application declined. Credit score: %d, Risk rating: %s. The risk profile exceeds acceptable parameters under current strategy.",
			input.Credit.FICOScore, input.Risk.RiskRating)

	case domain.DecisionReview:
		return fmt.Sprintf(
			"Application requires manual review. FICO: %d, PD: %s%%. Additional analysis needed before final determination.",
			input.Credit.FICOScore, trimFloat(input.Risk.ProbabilityOfDefault))

	default:
		return fmt.Sprintf(
			"Application approved for $%s. FICO: %d, Risk: %s, Rate: %s%%. Monthly payment: $%s.",
			formatAmount(*decision.ApprovedAmount),
			input.Credit.FICOScore, input.Risk.RiskRating,
			trimFloat(input.Pricing.FinalRate),
			formatAmount(input.Pricing.MonthlyPayment))
	}
}

// trimFloat renders a float without trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatAmount renders a dollar amount with thousands separators.
func formatAmount(v float64) string {
	s := strconv.FormatInt(int64(math.Round(v)), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
