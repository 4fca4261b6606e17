// Package scoring implements the deterministic FICO scoring engine: the five
// weighted component scores, the preliminary 300-850 aggregation, and the
// what-if scenario generator.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Component weights (industry standard), summing to 100.
const (
	WeightPaymentHistory  = 35
	WeightAmountsOwed     = 30
	WeightLengthOfHistory = 15
	WeightNewCredit       = 10
	WeightCreditMix       = 10
)

// Credit mix base scores by loan purpose.
var purposeScores = map[string]int{
	"Home Purchase":      85,
	"Business Expansion": 70,
	"Debt Consolidation": 85,
	"Vehicle Purchase":   80,
	"Education":          85,
	"Home Improvement":   80,
	"Medical Expenses":   90,
	domain.PurposeOther:  75,
}

const defaultPurposeScore = 75

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampScore(v float64) int {
	return int(clamp(math.Round(v), 0, 100))
}

// PaymentHistoryScore scores payment reliability from the DTI ratio.
func PaymentHistoryScore(app *domain.LoanApplication) int {
	dti := app.DTI()

	score := 100 - dti*1.5

	if dti < 15 {
		score += 5
	}
	if dti < 10 {
		score += 5
	}
	if dti > 40 {
		score -= 10
	}
	if dti > 50 {
		score -= 15
	}

	return clampScore(score)
}

// AmountsOwedScore scores existing debt relative to annual income.
func AmountsOwedScore(app *domain.LoanApplication) int {
	ratio := app.ExistingDebt / app.AnnualIncome

	score := 100 - ratio*200

	if ratio < 0.05 {
		score += 10
	}
	if ratio < 0.1 {
		score += 5
	}
	if ratio > 0.4 {
		score -= 10
	}
	if ratio > 0.6 {
		score -= 15
	}

	return clampScore(score)
}

// LengthOfHistoryScore uses employment years as a proxy for credit history.
func LengthOfHistoryScore(app *domain.LoanApplication) int {
	years := app.EmploymentYears

	score := math.Min(100, years*10+20)

	if years >= 10 {
		score = math.Min(100, score+5)
	}
	if years >= 15 {
		score = math.Min(100, score+5)
	}
	if years < 1 {
		score -= 15
	}
	if years < 2 {
		score -= 5
	}

	return clampScore(score)
}

// NewCreditScore scores the requested amount relative to income.
func NewCreditScore(app *domain.LoanApplication) int {
	ratio := app.LoanToIncome()

	score := 100 - ratio*100

	if ratio < 0.25 {
		score += 10
	}
	if ratio < 0.15 {
		score += 5
	}
	if ratio > 1.0 {
		score -= 15
	}
	if ratio > 1.5 {
		score -= 10
	}

	return clampScore(score)
}

// CreditMixScore starts from a purpose base score and adjusts for stability
// indicators.
func CreditMixScore(app *domain.LoanApplication) int {
	base, ok := purposeScores[app.Purpose]
	if !ok {
		base = defaultPurposeScore
	}

	adjustment := 0
	if app.EmploymentYears >= 5 {
		adjustment += 5
	}
	if app.AnnualIncome >= 100000 {
		adjustment += 3
	}
	if app.AnnualIncome >= 150000 {
		adjustment += 2
	}

	return clampScore(float64(base + adjustment))
}

func buildComponent(score, weight int, description string) domain.FICOComponent {
	return domain.FICOComponent{
		Score:        score,
		Weight:       weight,
		Contribution: float64(score*weight) / 100,
		Rating:       domain.RatingFor(score),
		Description:  description,
	}
}

// Components computes the full five-component breakdown for an application.
func Components(app *domain.LoanApplication) domain.FICOComponents {
	ph := PaymentHistoryScore(app)
	ao := AmountsOwedScore(app)
	lh := LengthOfHistoryScore(app)
	nc := NewCreditScore(app)
	cm := CreditMixScore(app)

	return domain.FICOComponents{
		PaymentHistory:  buildComponent(ph, WeightPaymentHistory, describePaymentHistory(ph, app)),
		AmountsOwed:     buildComponent(ao, WeightAmountsOwed, describeAmountsOwed(ao, app)),
		LengthOfHistory: buildComponent(lh, WeightLengthOfHistory, describeLengthOfHistory(lh, app)),
		NewCredit:       buildComponent(nc, WeightNewCredit, describeNewCredit(nc, app)),
		CreditMix:       buildComponent(cm, WeightCreditMix, describeCreditMix(cm, app)),
	}
}

// PreliminaryFICO maps the weighted 0-100 total onto the 300-850 FICO range.
// Pure function of the component set.
func PreliminaryFICO(components domain.FICOComponents) int {
	total := components.TotalContribution()
	fico := 300 + total*5.5
	return int(math.Round(clamp(fico, 300, 850)))
}

// Summary lists component strengths and weaknesses in one line.
func Summary(components domain.FICOComponents) string {
	named := []struct {
		name string
		c    domain.FICOComponent
	}{
		{"Payment History", components.PaymentHistory},
		{"Amounts Owed", components.AmountsOwed},
		{"Length of History", components.LengthOfHistory},
		{"New Credit", components.NewCredit},
		{"Credit Mix", components.CreditMix},
	}

	var strengths, weaknesses []string
	for _, nc := range named {
		entry := fmt.Sprintf("%s (%d/100)", nc.name, nc.c.Score)
		if nc.c.Rating == domain.RatingExcellent || nc.c.Rating == domain.RatingGood {
			strengths = append(strengths, entry)
		} else {
			weaknesses = append(weaknesses, entry)
		}
	}

	out := ""
	if len(strengths) > 0 {
		out += "Strengths: " + strings.Join(strengths, ", ") + ". "
	}
	if len(weaknesses) > 0 {
		out += "Areas for improvement: " + strings.Join(weaknesses, ", ") + "."
	}
	return strings.TrimSpace(out)
}
