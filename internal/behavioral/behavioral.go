// Package behavioral runs heuristic pattern checks over an application and
// aggregates detected red flags into a psychological risk score.
package behavioral

import (
	"fmt"
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// incomeExpectation holds the minimum and typical income range for a purpose.
type incomeExpectation struct {
	MinIncome   float64
	TypicalLow  float64
	TypicalHigh float64
}

var purposeIncomeExpectations = map[string]incomeExpectation{
	"Home Purchase":      {60000, 80000, 250000},
	"Business Expansion": {75000, 100000, 300000},
	"Debt Consolidation": {35000, 45000, 120000},
	"Vehicle Purchase":   {30000, 40000, 150000},
	"Education":          {25000, 35000, 100000},
	"Home Improvement":   {50000, 60000, 180000},
	"Medical Expenses":   {30000, 40000, 120000},
	domain.PurposeOther: {35000, 45000, 150000},
}

// debtBracket caps typical existing debt by income bracket.
type debtBracket struct {
	MaxIncome      float64
	TypicalDebtMax float64
}

var incomeDebtPatterns = []debtBracket{
	{50000, 15000},
	{75000, 25000},
	{100000, 40000},
	{150000, 60000},
	{250000, 100000},
	{math.Inf(1), 150000},
}

// Points per detected flag severity, capped at 100 in aggregate.
const (
	pointsHigh   = 25
	pointsMedium = 15
	pointsLow    = 5
)

func checkAmountPrecision(app *domain.LoanApplication) domain.BehavioralRedFlag {
	veryRound := app.RequestedAmount > 0 && math.Mod(app.RequestedAmount, 10000) == 0

	description := fmt.Sprintf("Loan amount of $%.0f shows specific financial planning", app.RequestedAmount)
	if veryRound {
		description = fmt.Sprintf("Exactly $%.0f requested - very round numbers may indicate less specific planning", app.RequestedAmount)
	}

	return domain.BehavioralRedFlag{
		Flag:        "Round Number Request",
		Severity:    domain.SeverityLow,
		Description: description,
		Detected:    veryRound,
	}
}

func checkPurposeIncomeMismatch(app *domain.LoanApplication) domain.BehavioralRedFlag {
	exp, ok := purposeIncomeExpectations[app.Purpose]
	if !ok {
		exp = purposeIncomeExpectations[domain.PurposeOther]
	}

	flag := domain.BehavioralRedFlag{
		Flag:     "Purpose-Income Mismatch",
		Severity: domain.SeverityLow,
	}

	switch {
	case app.AnnualIncome < exp.MinIncome:
		flag.Severity = domain.SeverityHigh
		flag.Detected = true
		flag.Description = fmt.Sprintf("Income of $%.0f is significantly below typical minimum ($%.0f) for %s loans. This combination raises affordability concerns.",
			app.AnnualIncome, exp.MinIncome, app.Purpose)
	case app.AnnualIncome < exp.TypicalLow:
		flag.Severity = domain.SeverityMedium
		flag.Detected = true
		flag.Description = fmt.Sprintf("Income of $%.0f is below typical range ($%.0f-$%.0f) for %s loans.",
			app.AnnualIncome, exp.TypicalLow, exp.TypicalHigh, app.Purpose)
	default:
		flag.Description = fmt.Sprintf("Income level is appropriate for %s loan purpose.", app.Purpose)
	}
	return flag
}

func checkDebtPatterns(app *domain.LoanApplication) domain.BehavioralRedFlag {
	bracket := incomeDebtPatterns[len(incomeDebtPatterns)-1]
	for _, b := range incomeDebtPatterns {
		if app.AnnualIncome <= b.MaxIncome {
			bracket = b
			break
		}
	}

	ratio := app.ExistingDebt / bracket.TypicalDebtMax

	flag := domain.BehavioralRedFlag{
		Flag:     "Abnormal Debt Pattern",
		Severity: domain.SeverityLow,
	}

	switch {
	case ratio > 2:
		flag.Severity = domain.SeverityHigh
		flag.Detected = true
		flag.Description = fmt.Sprintf("Existing debt of $%.0f is %.1fx higher than typical for this income bracket (expected max: $%.0f). May indicate financial distress.",
			app.ExistingDebt, ratio, bracket.TypicalDebtMax)
	case ratio > 1.3:
		flag.Severity = domain.SeverityMedium
		flag.Detected = true
		flag.Description = fmt.Sprintf("Existing debt is %.0f%% above typical for income level. Consider debt management capacity.", (ratio-1)*100)
	default:
		flag.Description = "Debt levels are within normal range for income bracket."
	}
	return flag
}

func checkEmploymentStability(app *domain.LoanApplication) domain.BehavioralRedFlag {
	veryNew := app.EmploymentYears < 1
	isNew := app.EmploymentYears < 2
	lti := app.LoanToIncome()

	flag := domain.BehavioralRedFlag{
		Flag:     "Employment Instability",
		Severity: domain.SeverityLow,
	}

	switch {
	case veryNew && lti > 0.5:
		flag.Severity = domain.SeverityHigh
		flag.Detected = true
		flag.Description = fmt.Sprintf("Less than 1 year employment combined with large loan request (%.0f%% of income) - high risk profile.", lti*100)
	case isNew && lti > 0.75:
		flag.Severity = domain.SeverityMedium
		flag.Detected = true
		flag.Description = fmt.Sprintf("%.1f years employment with aggressive borrowing pattern (%.0f%% of income).", app.EmploymentYears, lti*100)
	case isNew:
		flag.Detected = true
		flag.Description = fmt.Sprintf("Limited employment history (%.1f years) - standard monitoring recommended.", app.EmploymentYears)
	default:
		flag.Description = fmt.Sprintf("Employment tenure of %.1f years indicates stability.", app.EmploymentYears)
	}
	return flag
}

func checkFinancialStress(app *domain.LoanApplication) domain.BehavioralRedFlag {
	lti := app.LoanToIncome()
	postLoanDTI := (app.ExistingDebt + app.RequestedAmount) / app.AnnualIncome * 100

	flag := domain.BehavioralRedFlag{
		Flag:     "Financial Stress Signal",
		Severity: domain.SeverityLow,
	}

	switch {
	case lti > 1.5 || postLoanDTI > 80:
		flag.Severity = domain.SeverityHigh
		flag.Detected = true
		flag.Description = fmt.Sprintf("Requesting %.0f%% of annual income. Post-loan DTI would be %.0f%% - may indicate financial desperation.", lti*100, postLoanDTI)
	case lti > 1.0 || postLoanDTI > 60:
		flag.Severity = domain.SeverityMedium
		flag.Detected = true
		flag.Description = fmt.Sprintf("Large request relative to income (%.0f%%). Post-loan obligations would be substantial.", lti*100)
	case lti > 0.75:
		flag.Detected = true
		flag.Description = fmt.Sprintf("Moderately aggressive loan request (%.0f%% of income).", lti*100)
	default:
		flag.Description = "Conservative loan request relative to income."
	}
	return flag
}

// RiskScore sums the point values of detected flags, capped at 100.
func RiskScore(flags []domain.BehavioralRedFlag) int {
	score := 0
	for _, f := range flags {
		if !f.Detected {
			continue
		}
		switch f.Severity {
		case domain.SeverityHigh:
			score += pointsHigh
		case domain.SeverityMedium:
			score += pointsMedium
		case domain.SeverityLow:
			score += pointsLow
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func overallAssessment(flags []domain.BehavioralRedFlag, riskScore int) string {
	detected, high, medium := 0, 0, 0
	for _, f := range flags {
		if !f.Detected {
			continue
		}
		detected++
		switch f.Severity {
		case domain.SeverityHigh:
			high++
		case domain.SeverityMedium:
			medium++
		}
	}

	switch {
	case riskScore >= 60:
		return fmt.Sprintf("HIGH BEHAVIORAL RISK (Score: %d/100). Multiple concerning patterns detected: %d high-severity and %d medium-severity flags. This application exhibits financial stress signals that warrant enhanced scrutiny.", riskScore, high, medium)
	case riskScore >= 30:
		return fmt.Sprintf("MODERATE BEHAVIORAL RISK (Score: %d/100). Some concerning patterns identified. %d flags detected - recommend careful review of stated income and purpose alignment.", riskScore, detected)
	case riskScore > 0:
		return fmt.Sprintf("LOW BEHAVIORAL RISK (Score: %d/100). Minor flags detected but overall profile appears consistent. Standard verification procedures should suffice.", riskScore)
	default:
		return fmt.Sprintf("CLEAN BEHAVIORAL PROFILE (Score: %d/100). No red flags detected. Application data appears consistent and reasonable for stated purpose and income level.", riskScore)
	}
}

// Analyze runs all five red-flag checks and aggregates the results.
func Analyze(app *domain.LoanApplication) domain.BehavioralAnalysis {
	flags := []domain.BehavioralRedFlag{
		checkAmountPrecision(app),
		checkPurposeIncomeMismatch(app),
		checkDebtPatterns(app),
		checkEmploymentStability(app),
		checkFinancialStress(app),
	}

	score := RiskScore(flags)

	var count domain.FlagCount
	for _, f := range flags {
		if !f.Detected {
			continue
		}
		switch f.Severity {
		case domain.SeverityLow:
			count.Low++
		case domain.SeverityMedium:
			count.Medium++
		case domain.SeverityHigh:
			count.High++
		}
	}

	return domain.BehavioralAnalysis{
		RedFlags:               flags,
		PsychologicalRiskScore: score,
		OverallAssessment:      overallAssessment(flags, score),
		FlagCount:              count,
	}
}
