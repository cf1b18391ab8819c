package http

import (
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

type accountRequest struct {
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	InitialBalance core.Money `json:"initialBalance"`
	Currency       string     `json:"currency"`
}

type accountPatchRequest struct {
	Name   *string `json:"name"`
	Type   *string `json:"type"`
	Active *bool   `json:"active"`
}

type accountResponse struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Balance        core.Money `json:"balance"`
	InitialBalance core.Money `json:"initialBalance"`
	Currency       string     `json:"currency"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toAccount(a core.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		Balance:        a.Balance,
		InitialBalance: a.InitialBalance,
		Currency:       a.Currency,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type categoryRequest struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

type categoryPatchRequest struct {
	Name      *string `json:"name"`
	Direction *string `json:"direction"`
}

type categoryResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Direction string    `json:"direction"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCategory(c core.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Direction: string(c.Direction),
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt,
	}
}

type transactionRequest struct {
	AccountID         int64      `json:"accountId"`
	TransferAccountID *int64     `json:"transferAccountId"`
	CategoryID        int64      `json:"categoryId"`
	Type              string     `json:"type"`
	Amount            core.Money `json:"amount"`
	Date              core.Date  `json:"date"`
	Description       string     `json:"description"`
	Notes             string     `json:"notes"`
}

// transaction converts the request, normalizing the type so validation can
// report it.
func (req transactionRequest) transaction() (core.Transaction, error) {
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		AccountID:         req.AccountID,
		TransferAccountID: req.TransferAccountID,
		CategoryID:        req.CategoryID,
		Type:              typ,
		Amount:            req.Amount,
		Date:              req.Date,
		Description:       sanitizeInput(req.Description),
		Notes:             sanitizeInput(req.Notes),
	}, nil
}

type accountRefResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type categoryRefResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

type transactionResponse struct {
	ID                int64               `json:"id"`
	Type              string              `json:"type"`
	Amount            core.Money          `json:"amount"`
	Date              core.Date           `json:"date"`
	Description       string              `json:"description"`
	Notes             string              `json:"notes"`
	AccountID         int64               `json:"accountId"`
	TransferAccountID *int64              `json:"transferAccountId,omitempty"`
	CategoryID        int64               `json:"categoryId"`
	Account           accountRefResponse  `json:"account"`
	TransferAccount   *accountRefResponse `json:"transferAccount,omitempty"`
	Category          categoryRefResponse `json:"category"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

func toTransaction(d core.TransactionDetail) transactionResponse {
	resp := transactionResponse{
		ID:                d.ID,
		Type:              string(d.Type),
		Amount:            d.Amount,
		Date:              d.Date,
		Description:       d.Description,
		Notes:             d.Notes,
		AccountID:         d.AccountID,
		TransferAccountID: d.TransferAccountID,
		CategoryID:        d.CategoryID,
		Account:           accountRefResponse(d.Account),
		Category:          categoryRefResponse{ID: d.Category.ID, Name: d.Category.Name, Direction: string(d.Category.Direction)},
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if d.TransferAccount != nil {
		ref := accountRefResponse(*d.TransferAccount)
		resp.TransferAccount = &ref
	}
	return resp
}

type budgetRequest struct {
	Name       string     `json:"name"`
	CategoryID *int64     `json:"categoryId"`
	Amount     core.Money `json:"amount"`
	Period     string     `json:"period"`
	StartDate  core.Date  `json:"startDate"`
	EndDate    core.Date  `json:"endDate"`
	Active     *bool      `json:"active"`
}

func (req budgetRequest) budget() (core.Budget, error) {
	period, err := core.ParseBudgetPeriod(req.Period)
	if err != nil {
		return core.Budget{}, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return core.Budget{
		Name:       sanitizeInput(req.Name),
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     period,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Active:     active,
	}, nil
}

type budgetResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	CategoryID     *int64          `json:"categoryId"`
	Amount         core.Money      `json:"amount"`
	Period         string          `json:"period"`
	StartDate      core.Date       `json:"startDate"`
	EndDate        core.Date       `json:"endDate"`
	Active         bool            `json:"active"`
	TotalSpent     core.Money      `json:"totalSpent"`
	Remaining      core.Money      `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toBudget(e core.BudgetEvaluation) budgetResponse {
	b := e.Budget
	return budgetResponse{
		ID:             b.ID,
		Name:           b.Name,
		CategoryID:     b.CategoryID,
		Amount:         b.Amount,
		Period:         string(b.Period),
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		Active:         b.Active,
		TotalSpent:     e.TotalSpent,
		Remaining:      e.Remaining,
		PercentageUsed: e.PercentageUsed,
		Status:         string(e.Status),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

type recommendationResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type summaryResponse struct {
	Budgets               []budgetResponse         `json:"budgets"`
	TotalBudgetAmount     core.Money               `json:"totalBudgetAmount"`
	TotalSpent            core.Money               `json:"totalSpent"`
	TotalRemaining        core.Money               `json:"totalRemaining"`
	OverallPercentageUsed decimal.Decimal          `json:"overallPercentageUsed"`
	StatusCounts          map[string]int           `json:"statusCounts"`
	Recommendations       []recommendationResponse `json:"recommendations"`
}

func toSummary(s core.BudgetSummary) summaryResponse {
	resp := summaryResponse{
		Budgets:               make([]budgetResponse, 0, len(s.Budgets)),
		TotalBudgetAmount:     s.TotalBudgetAmount,
		TotalSpent:            s.TotalSpent,
		TotalRemaining:        s.TotalRemaining,
		OverallPercentageUsed: s.OverallPercentageUsed,
		StatusCounts: map[string]int{
			string(core.StatusGood):       s.StatusCounts.Good,
			string(core.StatusWarning):    s.StatusCounts.Warning,
			string(core.StatusOverbudget): s.StatusCounts.Overbudget,
		},
		Recommendations: make([]recommendationResponse, 0, len(s.Recommendations)),
	}
	for _, e := range s.Budgets {
		resp.Budgets = append(resp.Budgets, toBudget(e))
	}
	for _, r := range s.Recommendations {
		resp.Recommendations = append(resp.Recommendations, recommendationResponse{Type: string(r.Type), Message: r.Message})
	}
	return resp
}

type goalRequest struct {
	Name       string     `json:"name"`
	Target     core.Money `json:"targetAmount"`
	Current    core.Money `json:"currentAmount"`
	TargetDate *core.Date `json:"targetDate"`
	Completed  bool       `json:"completed"`
}

func (req goalRequest) goal() core.Goal {
	g := core.Goal{
		Name:      sanitizeInput(req.Name),
		Target:    req.Target,
		Current:   req.Current,
		Completed: req.Completed,
	}
	if req.TargetDate != nil && !req.TargetDate.IsZero() {
		d := *req.TargetDate
		g.TargetDate = &d
	}
	return g
}

type goalResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Target     core.Money      `json:"targetAmount"`
	Current    core.Money      `json:"currentAmount"`
	TargetDate *core.Date      `json:"targetDate"`
	Completed  bool            `json:"completed"`
	Progress   decimal.Decimal `json:"progress"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func toGoal(g core.Goal) goalResponse {
	return goalResponse{
		ID:         g.ID,
		Name:       g.Name,
		Target:     g.Target,
		Current:    g.Current,
		TargetDate: g.TargetDate,
		Completed:  g.Completed,
		Progress:   g.Progress(),
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

type alertResponse struct {
	ID             int64           `json:"id"`
	BudgetID       int64           `json:"budgetId"`
	Status         string          `json:"status"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	Spent          core.Money      `json:"spent"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func toAlert(a core.BudgetAlert) alertResponse {
	return alertResponse{
		ID:             a.ID,
		BudgetID:       a.BudgetID,
		Status:         string(a.Status),
		PercentageUsed: a.PercentageUsed,
		Spent:          a.Spent,
		CreatedAt:      a.CreatedAt,
	}
}

// mapSlice converts a slice of domain values into response values, never
// returning nil so empty lists encode as [].
func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
