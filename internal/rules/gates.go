package rules

// CommitteeGates returns the committee's gate list in priority order.
// Evaluation order matters: the compliance gate runs first and a rejection
// anywhere stops the walk.
func CommitteeGates() []GateConfig {
	return []GateConfig{
		{
			ID:          "compliance-block",
			Description: "Any compliance failure rejects immediately",
			Expression:  "!kyc_verified || !aml_cleared || !sanctions_cleared",
			Outcome:     OutcomeReject,
			Condition:   "Compliance requirements not met",
		},
		{
			ID:          "fico-hard-floor",
			Description: "FICO more than 50 points below the strategy minimum",
			Expression:  "fico < min_fico - 50",
			Outcome:     OutcomeReject,
		},
		{
			ID:          "fico-soft-floor",
			Description: "FICO below the strategy minimum",
			Expression:  "fico < min_fico",
			Outcome:     OutcomeReview,
			Condition:   "Manual review required due to credit score",
		},
		{
			ID:          "risk-very-high",
			Description: "Very high risk rating",
			Expression:  `risk_rating == "very-high"`,
			Outcome:     OutcomeReject,
		},
		{
			ID:           "risk-high-reduce",
			Description:  "High risk rating caps the approved amount",
			Expression:   `risk_rating == "high"`,
			Outcome:      OutcomeReduce,
			ReduceFactor: 0.7,
			Condition:    "Reduced loan amount due to risk profile",
		},
		{
			ID:          "rate-unviable",
			Description: "Final rate above 18% is not viable",
			Expression:  "final_rate > 18.0",
			Outcome:     OutcomeReject,
		},
		{
			ID:             "rate-lock",
			Description:    "Elevated rates require a rate lock",
			Expression:     "final_rate > 10.0",
			Outcome:        OutcomeCondition,
			Condition:      "Rate lock required within 30 days",
			OnlyIfApproved: true,
		},
		{
			ID:             "high-utilization",
			Description:    "High credit utilization suggests consolidation",
			Expression:     "credit_utilization > 50.0",
			Outcome:        OutcomeCondition,
			Condition:      "Debt consolidation recommended",
			OnlyIfApproved: true,
		},
		{
			ID:             "standard-docs",
			Description:    "Every approval carries the documentation condition",
			Expression:     "true",
			Outcome:        OutcomeCondition,
			Condition:      "Standard documentation package required",
			OnlyIfApproved: true,
		},
	}
}
