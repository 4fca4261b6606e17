package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

const maxScenarios = 5

// WhatIfScenarios builds counterfactual applications, each varying exactly
// one field, recomputes the full score for each, and reports the deltas
// against the current preliminary FICO. Scenarios whose precondition does not
// hold (e.g. paying off debt when there is none) are skipped. Results are
// sorted by descending delta and truncated to the top five.
func WhatIfScenarios(app *domain.LoanApplication, currentFICO int) []domain.WhatIfScenario {
	var scenarios []domain.WhatIfScenario

	addScenario := func(change string, modified domain.LoanApplication) {
		newFICO := PreliminaryFICO(Components(&modified))
		delta := newFICO - currentFICO
		impact := "neutral"
		if delta > 0 {
			impact = "positive"
		} else if delta < 0 {
			impact = "negative"
		}
		scenarios = append(scenarios, domain.WhatIfScenario{
			Change:  change,
			NewFICO: newFICO,
			Delta:   delta,
			Impact:  impact,
		})
	}

	if app.EmploymentYears < 10 {
		modified := *app
		modified.EmploymentYears += 2
		addScenario("Employment +2 years", modified)
	}

	if app.ExistingDebt >= 5000 {
		modified := *app
		modified.ExistingDebt -= 5000
		addScenario("Reduce debt by $5,000", modified)
	}

	reduced := math.Round(app.RequestedAmount * 0.8)
	if reduced != app.RequestedAmount {
		modified := *app
		modified.RequestedAmount = reduced
		addScenario(fmt.Sprintf("Request $%.0f instead", reduced), modified)
	}

	increased := math.Round(app.AnnualIncome * 1.15)
	{
		modified := *app
		modified.AnnualIncome = increased
		addScenario(fmt.Sprintf("Income increase to $%.0f", increased), modified)
	}

	if app.ExistingDebt > 0 {
		modified := *app
		modified.ExistingDebt = 0
		addScenario("Pay off all existing debt", modified)
	}

	sort.SliceStable(scenarios, func(i, j int) bool {
		return scenarios[i].Delta > scenarios[j].Delta
	})

	if len(scenarios) > maxScenarios {
		scenarios = scenarios[:maxScenarios]
	}
	return scenarios
}
