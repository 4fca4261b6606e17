package scoring

import (
	"fmt"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func describePaymentHistory(score int, app *domain.LoanApplication) string {
	dti := app.ExistingDebt / app.AnnualIncome * 100
	switch domain.RatingFor(score) {
	case domain.RatingExcellent:
		return fmt.Sprintf("Strong payment capacity with %.1f%% debt-to-income ratio", dti)
	case domain.RatingGood:
		return fmt.Sprintf("Good payment history indicators, %.1f%% DTI is manageable", dti)
	case domain.RatingFair:
		return fmt.Sprintf("Moderate concerns with %.1f%% debt burden", dti)
	default:
		return fmt.Sprintf("High risk: %.1f%% DTI suggests payment stress", dti)
	}
}

func describeAmountsOwed(score int, app *domain.LoanApplication) string {
	ratio := app.ExistingDebt / app.AnnualIncome * 100
	switch domain.RatingFor(score) {
	case domain.RatingExcellent:
		return fmt.Sprintf("Minimal debt exposure at %.1f%% of income", ratio)
	case domain.RatingGood:
		return fmt.Sprintf("Reasonable debt levels: %.1f%% of annual income", ratio)
	case domain.RatingFair:
		return fmt.Sprintf("Elevated debt: %.1f%% of income committed", ratio)
	default:
		return fmt.Sprintf("Concerning debt levels: %.1f%% of income", ratio)
	}
}

func describeLengthOfHistory(score int, app *domain.LoanApplication) string {
	years := app.EmploymentYears
	switch domain.RatingFor(score) {
	case domain.RatingExcellent:
		return fmt.Sprintf("%.0f+ years employment shows strong stability", years)
	case domain.RatingGood:
		return fmt.Sprintf("%.1f years employment indicates reliability", years)
	case domain.RatingFair:
		return fmt.Sprintf("%.1f years employment - building history", years)
	default:
		return fmt.Sprintf("Limited history with only %.1f years employment", years)
	}
}

func describeNewCredit(score int, app *domain.LoanApplication) string {
	ratio := app.LoanToIncome() * 100
	switch domain.RatingFor(score) {
	case domain.RatingExcellent:
		return fmt.Sprintf("Conservative request: %.0f%% of annual income", ratio)
	case domain.RatingGood:
		return fmt.Sprintf("Moderate request at %.0f%% of income", ratio)
	case domain.RatingFair:
		return fmt.Sprintf("Ambitious request: %.0f%% of annual income", ratio)
	default:
		return fmt.Sprintf("High-risk request: %.0f%% of income", ratio)
	}
}

func describeCreditMix(score int, app *domain.LoanApplication) string {
	switch domain.RatingFor(score) {
	case domain.RatingExcellent:
		return fmt.Sprintf("%s indicates healthy credit behavior", app.Purpose)
	case domain.RatingGood:
		return fmt.Sprintf("%s is a reasonable credit purpose", app.Purpose)
	case domain.RatingFair:
		return fmt.Sprintf("%s carries moderate risk profile", app.Purpose)
	default:
		return fmt.Sprintf("%s suggests credit stress", app.Purpose)
	}
}
