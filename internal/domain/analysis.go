package domain

// Rating is the qualitative bucket for a 0-100 component score.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// RatingFor buckets a component score.
func RatingFor(score int) Rating {
	switch {
	case score >= 85:
		return RatingExcellent
	case score >= 70:
		return RatingGood
	case score >= 55:
		return RatingFair
	default:
		return RatingPoor
	}
}

// FICOComponent is one weighted sub-score of the preliminary FICO.
type FICOComponent struct {
	Score        int     `json:"score"`  // 0-100
	Weight       int     `json:"weight"` // fixed per component, weights sum to 100
	Contribution float64 `json:"contribution"`
	Rating       Rating  `json:"rating"`
	Description  string  `json:"description"`
}

// FICOComponents is the full five-component breakdown.
type FICOComponents struct {
	PaymentHistory  FICOComponent `json:"paymentHistory"`
	AmountsOwed     FICOComponent `json:"amountsOwed"`
	LengthOfHistory FICOComponent `json:"lengthOfHistory"`
	NewCredit       FICOComponent `json:"newCredit"`
	CreditMix       FICOComponent `json:"creditMix"`
}

// TotalContribution sums the weighted contributions of all five components.
func (c *FICOComponents) TotalContribution() float64 {
	return c.PaymentHistory.Contribution +
		c.AmountsOwed.Contribution +
		c.LengthOfHistory.Contribution +
		c.NewCredit.Contribution +
		c.CreditMix.Contribution
}

// WhatIfScenario is a counterfactual recomputation under one modified field.
type WhatIfScenario struct {
	Change  string `json:"change"`
	NewFICO int    `json:"newFICO"`
	Delta   int    `json:"delta"`
	Impact  string `json:"impact"` // "positive", "negative" or "neutral"
}

// IndustryAnalysis benchmarks the applicant against their sector.
type IndustryAnalysis struct {
	Industry            string  `json:"industry"`
	RiskCoefficient     float64 `json:"riskCoefficient"`
	Stability           string  `json:"stability"`
	LayoffRisk          string  `json:"layoffRisk"`
	AdjustedFICO        int     `json:"adjustedFICO"`
	IndustryPercentile  int     `json:"industryPercentile"`
	BenchmarkComparison string  `json:"benchmarkComparison"`
}

// TrajectoryTrend classifies the expected direction of the credit profile.
type TrajectoryTrend string

const (
	TrendImproving TrajectoryTrend = "improving"
	TrendStable    TrajectoryTrend = "stable"
	TrendDeclining TrajectoryTrend = "declining"
)

// TrajectoryPrediction is a projected score at one future horizon.
type TrajectoryPrediction struct {
	Months         int             `json:"months"`
	ProjectedFICO  int             `json:"projectedFICO"`
	ConfidenceLow  int             `json:"confidenceLow"`
	ConfidenceHigh int             `json:"confidenceHigh"`
	Trend          TrajectoryTrend `json:"trend"`
}

// CreditTrajectory forecasts the applicant's score over 12/24/36 months.
type CreditTrajectory struct {
	DebtVelocity    float64                `json:"debtVelocity"` // dollars of debt accumulated per year
	IncomeDebtRatio float64                `json:"incomeDebtRatio"`
	TrajectoryTrend TrajectoryTrend        `json:"trajectoryTrend"`
	Predictions     []TrajectoryPrediction `json:"predictions"`
	RiskAssessment  string                 `json:"riskAssessment"`
}

// Severity grades a behavioral red flag.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// BehavioralRedFlag is the result of one heuristic pattern check.
type BehavioralRedFlag struct {
	Flag        string   `json:"flag"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Detected    bool     `json:"detected"`
}

// FlagCount tallies detected flags by severity.
type FlagCount struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// BehavioralAnalysis aggregates the red-flag checks into a risk score.
type BehavioralAnalysis struct {
	RedFlags               []BehavioralRedFlag `json:"redFlags"`
	PsychologicalRiskScore int                 `json:"psychologicalRiskScore"` // 0-100
	OverallAssessment      string              `json:"overallAssessment"`
	FlagCount              FlagCount           `json:"flagCount"`
}

// CreditAnalysis is the credit stage output: the deterministic scoring engine
// results plus gateway-sourced qualitative fields.
type CreditAnalysis struct {
	FICOScore          int                `json:"ficoScore"` // final, after bounded adjustment
	PreliminaryFICO    int                `json:"preliminaryFICO"`
	AIAdjustment       int                `json:"aiAdjustment"` // final minus preliminary, clamped
	FICOComponents     FICOComponents     `json:"ficoComponents"`
	WhatIfScenarios    []WhatIfScenario   `json:"whatIfScenarios"`
	IndustryAnalysis   IndustryAnalysis   `json:"industryAnalysis"`
	Trajectory         CreditTrajectory   `json:"trajectory"`
	BehavioralAnalysis BehavioralAnalysis `json:"behavioralAnalysis"`
	CreditHistory      string             `json:"creditHistory"`
	PaymentHistory     string             `json:"paymentHistory"`
	CreditUtilization  int                `json:"creditUtilization"` // percentage
	Recommendation     string             `json:"recommendation"`
}

// RiskRating buckets the probability of default.
type RiskRating string

const (
	RiskLow      RiskRating = "low"
	RiskMedium   RiskRating = "medium"
	RiskHigh     RiskRating = "high"
	RiskVeryHigh RiskRating = "very-high"
)

// RiskAnalysis is the risk stage output.
type RiskAnalysis struct {
	ProbabilityOfDefault float64    `json:"probabilityOfDefault"` // percentage
	LossGivenDefault     float64    `json:"lossGivenDefault"`     // percentage
	ExpectedLoss         float64    `json:"expectedLoss"`         // dollars
	RiskRating           RiskRating `json:"riskRating"`
	Recommendation       string     `json:"recommendation"`
}

// ComplianceCheck is the compliance stage output.
type ComplianceCheck struct {
	KYCVerified          bool   `json:"kycVerified"`
	AMLCleared           bool   `json:"amlCleared"`
	SanctionsCleared     bool   `json:"sanctionsCleared"`
	DocumentVerification string `json:"documentVerification"`
	Recommendation       string `json:"recommendation"`
}

// Passed reports whether every compliance screen cleared.
func (c *ComplianceCheck) Passed() bool {
	return c.KYCVerified && c.AMLCleared && c.SanctionsCleared
}

// PricingAnalysis is the pricing stage output.
type PricingAnalysis struct {
	BaseRate       float64 `json:"baseRate"`    // percentage
	RiskPremium    float64 `json:"riskPremium"` // percentage
	FinalRate      float64 `json:"finalRate"`   // percentage
	MonthlyPayment float64 `json:"monthlyPayment"`
	Recommendation string  `json:"recommendation"`
}

// Decision is the committee's final verdict.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
	DecisionReview   Decision = "review"
)

// CommitteeDecision is the chair stage output.
type CommitteeDecision struct {
	FinalDecision  Decision `json:"finalDecision"`
	ApprovedAmount *float64 `json:"approvedAmount"` // nil when rejected
	Conditions     []string `json:"conditions"`
	Summary        string   `json:"summary"`
}
