package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// agentPrompts holds the per-agent system prompt. Each prompt demands a bare
// JSON object so the response can be parsed without post-processing beyond
// code-fence stripping.
var agentPrompts = map[domain.StageID]string{
	domain.StageCredit: `You are a Credit Analyst AI agent specializing in FICO scoring and credit history analysis.

Analyze the loan application and provide a credit assessment. You must respond with ONLY valid JSON in this exact format:
{
  "ficoScore": <number between 300-850 based on the applicant's profile>,
  "creditHistory": "<detailed assessment of credit history>",
  "paymentHistory": "<Excellent|Good|Fair|Poor>",
  "recommendation": "<your recommendation for next steps>"
}

Base your FICO score assessment on:
- Debt-to-income ratio (existing debt vs annual income)
- Employment stability (years employed)
- Loan amount relative to income
- Purpose of the loan

Be realistic and analytical. Higher income, longer employment, and lower existing debt suggest better credit.`,

	domain.StageRisk: `You are a Risk Modeler AI agent specializing in Probability of Default (PD) and Loss Given Default (LGD) calculations.

Analyze the loan application and previous credit analysis. You must respond with ONLY valid JSON in this exact format:
{
  "recommendation": "<your risk assessment recommendation>"
}

Consider:
- The FICO score from credit analysis
- Debt-to-income ratio
- Loan amount relative to income
- Employment stability
- The bank's risk strategy thresholds`,

	domain.StageCompliance: `You are a Compliance Officer AI agent specializing in KYC/AML verification.

Analyze the loan application for compliance posture. You must respond with ONLY valid JSON in this exact format:
{
  "recommendation": "<your compliance recommendation>"
}

Be realistic but not overly strict.`,

	domain.StagePricing: `You are a Pricing Strategist AI agent specializing in risk-adjusted loan pricing.

Analyze the loan application and risk metrics. You must respond with ONLY valid JSON in this exact format:
{
  "recommendation": "<your pricing recommendation>"
}

Consider:
- Current market base rates (around 5.5%)
- Risk premium based on PD from risk analysis
- The bank's risk premium multiplier from strategy`,

	domain.StageChair: `You are the Committee Chair AI agent responsible for synthesizing all analyses into a final decision narrative.

Review all previous analyses. You must respond with ONLY valid JSON in this exact format:
{
  "summary": "<comprehensive summary of the decision rationale>"
}

Be decisive and provide clear reasoning.`,
}

// systemPrompt returns the agent's system prompt.
func systemPrompt(agent domain.StageID) (string, error) {
	prompt, ok := agentPrompts[agent]
	if !ok {
		return "", fmt.Errorf("no prompt defined for agent type %q", agent)
	}
	return prompt, nil
}

// buildUserMessage renders the application, strategy, and prior analyses into
// the user turn.
func buildUserMessage(req domain.AgentRequest) (string, error) {
	app, err := json.MarshalIndent(req.Application, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode application: %w", err)
	}
	strategy, err := json.MarshalIndent(req.Strategy, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode strategy: %w", err)
	}

	msg := fmt.Sprintf("Loan Application:\n%s\n\nRisk Strategy:\n%s", app, strategy)

	if len(req.Previous) > 0 {
		previous, err := json.MarshalIndent(req.Previous, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode previous analyses: %w", err)
		}
		msg += fmt.Sprintf("\n\nPrevious Analyses:\n%s", previous)
	}

	return msg, nil
}
