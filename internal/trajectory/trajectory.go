// Package trajectory forecasts future credit score trends from debt-velocity
// and income ratios.
package trajectory

import (
	"fmt"
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Projection horizons in months.
var horizons = []int{12, 24, 36}

// Monthly score change per trend, in points.
var monthlyRates = map[domain.TrajectoryTrend]float64{
	domain.TrendImproving: 2.5,
	domain.TrendStable:    0.3,
	domain.TrendDeclining: -1.5,
}

// DebtVelocity is the rate of debt accumulation in dollars per year of
// employment. With no employment history all existing debt counts as newly
// acquired.
func DebtVelocity(app *domain.LoanApplication) float64 {
	if app.EmploymentYears == 0 {
		return app.ExistingDebt
	}
	return app.ExistingDebt / app.EmploymentYears
}

// Trend classifies the expected credit direction from income relative to
// debt accumulation and the DTI ratio.
func Trend(app *domain.LoanApplication, debtVelocity float64) domain.TrajectoryTrend {
	monthly := debtVelocity * 12
	if monthly == 0 {
		monthly = 1
	}
	incomeToDebtGrowth := app.AnnualIncome / monthly
	dti := app.DTI()

	if incomeToDebtGrowth > 10 && dti < 25 {
		return domain.TrendImproving
	}
	if incomeToDebtGrowth < 3 || dti > 40 {
		return domain.TrendDeclining
	}
	return domain.TrendStable
}

func clampFICO(v int) int {
	if v < 300 {
		return 300
	}
	if v > 850 {
		return 850
	}
	return v
}

func project(currentFICO int, trend domain.TrajectoryTrend, months int, app *domain.LoanApplication, components domain.FICOComponents) domain.TrajectoryPrediction {
	baseChange := monthlyRates[trend] * float64(months)
	projected := currentFICO + int(math.Round(baseChange))

	// Strong payment history stabilizes the projection; poor history drags it.
	switch components.PaymentHistory.Rating {
	case domain.RatingExcellent:
		projected += int(math.Round(float64(months) * 0.3))
	case domain.RatingPoor:
		projected -= int(math.Round(float64(months) * 0.5))
	}

	if app.EmploymentYears >= 5 {
		projected += int(math.Round(float64(months) * 0.2))
	}

	// Uncertainty grows with the horizon.
	variance := 15 + float64(months)*1.5
	multiplier := 1.0
	switch trend {
	case domain.TrendStable:
		multiplier = 0.8
	case domain.TrendDeclining:
		multiplier = 1.3
	}
	interval := int(math.Round(variance * multiplier))

	projected = clampFICO(projected)

	return domain.TrajectoryPrediction{
		Months:         months,
		ProjectedFICO:  projected,
		ConfidenceLow:  clampFICO(projected - interval),
		ConfidenceHigh: clampFICO(projected + interval),
		Trend:          trend,
	}
}

func riskAssessment(trend domain.TrajectoryTrend, debtVelocity float64, app *domain.LoanApplication) string {
	dti := app.DTI()
	monthlyVelocity := debtVelocity / 12

	switch trend {
	case domain.TrendDeclining:
		out := fmt.Sprintf("CONCERNING TRAJECTORY: Debt growing at ~$%.0f/month with %.1f%% DTI. ", monthlyVelocity, dti)
		if debtVelocity > app.AnnualIncome*0.1 {
			out += "Debt accumulation rate exceeds 10% of annual income - high risk of payment stress. "
		}
		if dti > 40 {
			out += "DTI above 40% suggests existing financial strain. Adding new debt may accelerate decline."
		} else {
			out += "While DTI is manageable, the trend suggests worsening financial health over time."
		}
		return out
	case domain.TrendImproving:
		return fmt.Sprintf("POSITIVE TRAJECTORY: Strong income-to-debt ratio with controlled debt accumulation ($%.0f/month). "+
			"Current %.1f%% DTI with %.1f years employment suggests stable financial management. "+
			"Profile likely to maintain or improve creditworthiness.", monthlyVelocity, dti, app.EmploymentYears)
	default:
		return fmt.Sprintf("STABLE TRAJECTORY: Debt velocity of $%.0f/month is proportional to income. "+
			"%.1f%% DTI indicates manageable debt load. "+
			"Credit profile expected to remain consistent absent major financial changes.", monthlyVelocity, dti)
	}
}

// Project computes the complete credit trajectory for 12, 24 and 36 months.
func Project(app *domain.LoanApplication, currentFICO int, components domain.FICOComponents) domain.CreditTrajectory {
	velocity := DebtVelocity(app)

	incomeDebtRatio := app.AnnualIncome
	if app.ExistingDebt > 0 {
		incomeDebtRatio = app.AnnualIncome / app.ExistingDebt
	}

	trend := Trend(app, velocity)

	predictions := make([]domain.TrajectoryPrediction, 0, len(horizons))
	for _, months := range horizons {
		predictions = append(predictions, project(currentFICO, trend, months, app, components))
	}

	return domain.CreditTrajectory{
		DebtVelocity:    velocity,
		IncomeDebtRatio: incomeDebtRatio,
		TrajectoryTrend: trend,
		Predictions:     predictions,
		RiskAssessment:  riskAssessment(trend, velocity, app),
	}
}
