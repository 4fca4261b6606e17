// Package industry applies per-sector risk coefficients and percentile
// benchmarking to a preliminary FICO score.
package industry

import (
	"fmt"
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// riskProfile holds the per-industry risk coefficient and labels. A
// coefficient above 1.0 penalizes the adjusted score, below 1.0 rewards it.
type riskProfile struct {
	Coefficient float64
	Stability   string
	LayoffRisk  string
}

var industryRisk = map[string]riskProfile{
	"Technology": {1.05, "moderate", "medium"},
	"Healthcare": {0.90, "high", "low"},
	"Government": {0.85, "very high", "very low"},
	"Education": {0.92, "high", "low"},
	"Finance": {0.95, "high", "medium"},
	"Retail": {1.15, "low", "high"},
	"Manufacturing": {1.10, "moderate", "medium"},
	"Construction": {1.20, "low", "high"},
	"Hospitality": {1.25, "low", "very high"},
	"Transportation": {1.08, "moderate", "medium"},
	"Energy": {1.05, "moderate", "medium"},
	"Real Estate": {1.12, "low", "high"},
	"Legal": {0.93, "high", "low"},
	"Consulting": {1.02, "moderate", "medium"},
	"Non-Profit": {0.98, "moderate", "low"},
	domain.IndustryOther: {1.00, "moderate", "medium"},
}

// benchmark holds simulated historical sector benchmarks.
type benchmark struct {
	AvgFICO         int
	ApprovalRate    int     // percentage
	AvgLoanToIncome float64 // requested amount / annual income
}

var industryBenchmarks = map[string]benchmark{
	"Technology": {720, 78, 0.65},
	"Healthcare": {740, 85, 0.55},
	"Government": {750, 88, 0.50},
	"Education": {730, 82, 0.60},
	"Finance": {735, 80, 0.58},
	"Retail": {680, 62, 0.75},
	"Manufacturing": {695, 68, 0.70},
	"Construction": {670, 58, 0.80},
	"Hospitality": {660, 52, 0.85},
	"Transportation": {700, 70, 0.68},
	"Energy": {710, 72, 0.62},
	"Real Estate": {705, 65, 0.72},
	"Legal": {745, 84, 0.52},
	"Consulting": {725, 76, 0.60},
	"Non-Profit": {715, 75, 0.58},
	domain.IndustryOther: {700, 68, 0.65},
}

const ficoStdDev = 50

// Percentile approximates the percentile of value against a normal
// distribution using a logistic sigmoid for the CDF. The result is clamped
// to [1, 99] so extreme z-scores never report 0 or 100.
func Percentile(value, mean, stdDev float64) int {
	z := (value - mean) / stdDev
	p := 100 / (1 + math.Exp(-1.7*z))
	return int(math.Round(math.Min(99, math.Max(1, p))))
}

// Analyze computes the industry-adjusted FICO, the applicant's percentile
// within their sector, and the benchmark comparison narrative. Unknown
// industries fall back to the Other bucket.
func Analyze(app *domain.LoanApplication, preliminaryFICO int) domain.IndustryAnalysis {
	risk, ok := industryRisk[app.Industry]
	if !ok {
		risk = industryRisk[domain.IndustryOther]
	}
	bench, ok := industryBenchmarks[app.Industry]
	if !ok {
		bench = industryBenchmarks[domain.IndustryOther]
	}

	// Higher-risk industries get a penalty, lower-risk a bonus.
	adjustmentFactor := 1 - (risk.Coefficient-1)*0.5
	adjustedFICO := int(math.Round(float64(preliminaryFICO) * adjustmentFactor))

	pct := Percentile(float64(preliminaryFICO), float64(bench.AvgFICO), ficoStdDev)

	comparison := benchmarkComparison(app, preliminaryFICO, pct, bench)

	return domain.IndustryAnalysis{
		Industry:            app.Industry,
		RiskCoefficient:     risk.Coefficient,
		Stability:           risk.Stability,
		LayoffRisk:          risk.LayoffRisk,
		AdjustedFICO:        adjustedFICO,
		IndustryPercentile:  pct,
		BenchmarkComparison: comparison,
	}
}

func benchmarkComparison(app *domain.LoanApplication, fico, pct int, bench benchmark) string {
	var out string
	switch {
	case pct >= 75:
		out = fmt.Sprintf("Excellent: This profile ranks in the %dth percentile for %s workers. FICO exceeds industry average of %d by %d points.",
			pct, app.Industry, bench.AvgFICO, fico-bench.AvgFICO)
	case pct >= 50:
		out = fmt.Sprintf("Above Average: This profile is at the %dth percentile for %s. Close to industry average FICO of %d.",
			pct, app.Industry, bench.AvgFICO)
	case pct >= 25:
		out = fmt.Sprintf("Below Average: At %dth percentile for %s. FICO is %d points below industry average.",
			pct, app.Industry, bench.AvgFICO-fico)
	default:
		out = fmt.Sprintf("Weak: This profile is in the bottom %d%% of %s applicants. Industry approval rate is %d%%, this profile may face challenges.",
			pct, app.Industry, bench.ApprovalRate)
	}

	lti := app.LoanToIncome()
	if lti > bench.AvgLoanToIncome*1.2 {
		out += fmt.Sprintf(" Loan request is %.0f%% higher than typical for this industry.",
			(lti/bench.AvgLoanToIncome-1)*100)
	} else if lti < bench.AvgLoanToIncome*0.8 {
		out += fmt.Sprintf(" Conservative loan request, %.0f%% below industry average.",
			(1-lti/bench.AvgLoanToIncome)*100)
	}
	return out
}
