package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type BudgetStatus string

const (
	StatusGood       BudgetStatus = "good"
	StatusWarning    BudgetStatus = "warning"
	StatusOverbudget BudgetStatus = "overbudget"
)

// warningShare is the fraction of the budget amount below which the
// remaining headroom counts as a warning.
var warningShare = decimal.RequireFromString("0.1")

// BudgetEvaluation holds the read-time metrics of a budget. None of these
// fields are persisted.
type BudgetEvaluation struct {
	Budget         Budget
	TotalSpent     Money
	Remaining      Money
	PercentageUsed decimal.Decimal
	Status         BudgetStatus
}

// StatusCounts is the number of budgets per status.
type StatusCounts struct {
	Good       int
	Warning    int
	Overbudget int
}

// BudgetSummary is the portfolio view over a set of evaluated budgets.
type BudgetSummary struct {
	Budgets               []BudgetEvaluation
	TotalBudgetAmount     Money
	TotalSpent            Money
	TotalRemaining        Money
	OverallPercentageUsed decimal.Decimal
	StatusCounts          StatusCounts
	Recommendations       []Recommendation
}

type RecommendationType string

const (
	RecommendationWarning RecommendationType = "warning"
	RecommendationInfo    RecommendationType = "info"
	RecommendationSuccess RecommendationType = "success"
)

type Recommendation struct {
	Type    RecommendationType
	Message string
}

// EvaluateBudget computes remaining, percentage used and status for a budget
// given the expenses already aggregated over its window. Every caller, single
// budget or summary, goes through this function.
func EvaluateBudget(b Budget, spent Money) BudgetEvaluation {
	remaining := b.Amount.Sub(spent)
	return BudgetEvaluation{
		Budget:         b,
		TotalSpent:     spent,
		Remaining:      remaining,
		PercentageUsed: PercentageOf(spent.Decimal(), b.Amount.Decimal()),
		Status:         statusOf(b.Amount, remaining),
	}
}

func statusOf(amount, remaining Money) BudgetStatus {
	if remaining.Cents < 0 {
		return StatusOverbudget
	}
	// Strictly less: exactly 10% left is still good.
	if remaining.Decimal().LessThan(amount.Decimal().Mul(warningShare)) {
		return StatusWarning
	}
	return StatusGood
}

// Summarize aggregates evaluations into portfolio totals and attaches
// recommendations.
func Summarize(evals []BudgetEvaluation) BudgetSummary {
	s := BudgetSummary{Budgets: evals}
	for _, e := range evals {
		s.TotalBudgetAmount = s.TotalBudgetAmount.Add(e.Budget.Amount)
		s.TotalSpent = s.TotalSpent.Add(e.TotalSpent)
		switch e.Status {
		case StatusGood:
			s.StatusCounts.Good++
		case StatusWarning:
			s.StatusCounts.Warning++
		case StatusOverbudget:
			s.StatusCounts.Overbudget++
		}
	}
	s.TotalRemaining = s.TotalBudgetAmount.Sub(s.TotalSpent)
	s.OverallPercentageUsed = PercentageOf(s.TotalSpent.Decimal(), s.TotalBudgetAmount.Decimal())
	s.Recommendations = Recommend(s)
	return s
}

var (
	ninety = decimal.NewFromInt(90)
	fifty  = decimal.NewFromInt(50)
)

// Recommend derives advisory messages from a summary. The checks are
// independent except the high/low usage pair.
func Recommend(s BudgetSummary) []Recommendation {
	var recs []Recommendation
	if n := s.StatusCounts.Overbudget; n > 0 {
		recs = append(recs, Recommendation{
			Type:    RecommendationWarning,
			Message: fmt.Sprintf("%d %s over budget. Review your spending in these categories.", n, plural(n, "budget is", "budgets are")),
		})
	}
	if n := s.StatusCounts.Warning; n > 0 {
		recs = append(recs, Recommendation{
			Type:    RecommendationInfo,
			Message: fmt.Sprintf("%d %s close to the limit.", n, plural(n, "budget is", "budgets are")),
		})
	}
	switch {
	case s.OverallPercentageUsed.GreaterThan(ninety):
		recs = append(recs, Recommendation{
			Type:    RecommendationWarning,
			Message: fmt.Sprintf("You have used %s%% of your total budget.", s.OverallPercentageUsed.StringFixed(2)),
		})
	case s.OverallPercentageUsed.LessThan(fifty):
		recs = append(recs, Recommendation{
			Type:    RecommendationSuccess,
			Message: "Your spending is well within budget. Consider moving the surplus to a savings goal.",
		})
	}
	if len(s.Budgets) == 0 {
		recs = append(recs, Recommendation{
			Type:    RecommendationInfo,
			Message: "You have no active budgets. Create one to start tracking your spending.",
		})
	}
	return recs
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
