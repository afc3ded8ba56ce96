package service

import "makeitreel/internal/model"

// PlanGrants decides whether a newly created account is handed a
// subscription without checkout.
type PlanGrants interface {
	PlanFor(email string) (model.Plan, bool)
}

// TestAccountGrants maps demo emails to the tier they receive on signup.
type TestAccountGrants map[string]model.Plan

// DefaultTestAccounts returns the QA/demo accounts.
func DefaultTestAccounts() TestAccountGrants {
	return TestAccountGrants{
		"test@example.com":     model.PlanPro,
		"expert@example.com":   model.PlanExpert,
		"business@example.com": model.PlanBusiness,
	}
}

func (g TestAccountGrants) PlanFor(email string) (model.Plan, bool) {
	plan, ok := g[model.NormalizeEmail(email)]
	return plan, ok
}

// NoGrants never grants a plan. Production builds use it.
type NoGrants struct{}

func (NoGrants) PlanFor(string) (model.Plan, bool) { return "", false }
