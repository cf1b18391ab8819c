package core

import (
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Credit     AccountType = "credit"
	Cash       AccountType = "cash"
	Investment AccountType = "investment"
	Loan       AccountType = "loan"
)

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

const (
	DirectionIncome  Direction = "INCOME"
	DirectionExpense Direction = "EXPENSE"
)

const (
	Weekly    BudgetPeriod = "weekly"
	Monthly   BudgetPeriod = "monthly"
	Quarterly BudgetPeriod = "quarterly"
	Yearly    BudgetPeriod = "yearly"
)

const (
	maxNameLength        = 100
	maxCategoryName      = 50
	maxDescriptionLength = 200
	maxNotesLength       = 1000
)

type (
	AccountType     string
	TransactionType string
	Direction       string
	BudgetPeriod    string

	User struct {
		ID        int64
		Email     string
		Name      string
		CreatedAt time.Time
	}

	// Account balance is a cache: InitialBalance plus the signed sum of the
	// account's transaction effects. It is only written by ledger operations.
	Account struct {
		ID             int64
		OwnerID        int64
		Name           string
		Type           AccountType
		Balance        Money
		InitialBalance Money
		Currency       string
		Active         bool
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Category struct {
		ID        int64
		OwnerID   int64
		Name      string
		Direction Direction
		IsDefault bool
		CreatedAt time.Time
	}

	// Transaction amounts are always positive; the sign of the balance effect
	// comes from Type.
	Transaction struct {
		ID                int64
		OwnerID           int64
		AccountID         int64
		TransferAccountID *int64
		CategoryID        int64
		Type              TransactionType
		Amount            Money
		Date              Date
		Description       string
		Notes             string
		CreatedAt         time.Time
		UpdatedAt         time.Time
	}

	AccountRef struct {
		ID       int64
		Name     string
		Currency string
	}

	CategoryRef struct {
		ID        int64
		Name      string
		Direction Direction
	}

	// TransactionDetail is a transaction joined with its account and category summaries.
	TransactionDetail struct {
		Transaction
		Account         AccountRef
		TransferAccount *AccountRef
		Category        CategoryRef
	}

	// Budget with a nil CategoryID covers every expense category.
	Budget struct {
		ID         int64
		OwnerID    int64
		Name       string
		CategoryID *int64
		Amount     Money
		Period     BudgetPeriod
		StartDate  Date
		EndDate    Date
		Active     bool
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Goal struct {
		ID         int64
		OwnerID    int64
		Name       string
		Target     Money
		Current    Money
		TargetDate *Date
		Completed  bool
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// TransactionFilter narrows a transaction listing. Zero values mean no
	// restriction. AccountID matches either leg of a transfer.
	TransactionFilter struct {
		AccountID  *int64
		CategoryID *int64
		Type       TransactionType
		From       Date
		To         Date
		Limit      int
		Offset     int
	}

	BudgetFilter struct {
		ActiveOnly bool
		Period     BudgetPeriod
	}

	// BudgetAlert records that a budget reached a non-good status.
	BudgetAlert struct {
		ID             int64
		OwnerID        int64
		BudgetID       int64
		Status         BudgetStatus
		PercentageUsed decimal.Decimal
		Spent          Money
		CreatedAt      time.Time
	}
)

// ParseAccountType normalizes and validates an account type.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case Checking, Savings, Credit, Cash, Investment, Loan:
		return t, nil
	}
	return "", ErrInvalidAccountType
}

// ParseTransactionType normalizes and validates a transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case Income, Expense, Transfer:
		return t, nil
	}
	return "", ErrInvalidType
}

// ParseDirection normalizes and validates a category direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case DirectionIncome, DirectionExpense:
		return d, nil
	}
	return "", ErrInvalidDirection
}

// ParseBudgetPeriod normalizes and validates a budget period.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	p := BudgetPeriod(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Weekly, Monthly, Quarterly, Yearly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// EndFrom returns the last day of a period starting on start.
func (p BudgetPeriod) EndFrom(start Date) Date {
	var next time.Time
	switch p {
	case Weekly:
		next = start.AddDate(0, 0, 7)
	case Quarterly:
		next = start.AddDate(0, 3, 0)
	case Yearly:
		next = start.AddDate(1, 0, 0)
	default:
		next = start.AddDate(0, 1, 0)
	}
	return Date{Time: next}.AddDays(-1)
}

// Matches reports whether a category with direction d may be used for t.
// Transfers accept any category.
func (d Direction) Matches(t TransactionType) bool {
	if t == Transfer {
		return true
	}
	return string(d) == string(t)
}

func (u User) Validate() error {
	if _, err := mail.ParseAddress(u.Email); err != nil || strings.TrimSpace(u.Email) == "" {
		return ErrInvalidEmail
	}
	return validateName(u.Name, maxNameLength, true)
}

func (a Account) Validate() error {
	if err := validateName(a.Name, maxNameLength, false); err != nil {
		return err
	}
	if _, err := ParseAccountType(string(a.Type)); err != nil {
		return err
	}
	return ValidateCurrency(a.Currency)
}

// ValidateCurrency checks for a 3-letter upper-case ISO 4217 code.
func ValidateCurrency(c string) error {
	if len(c) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range c {
		if !unicode.IsUpper(r) || r > unicode.MaxASCII {
			return ErrInvalidCurrency
		}
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name, maxCategoryName, false); err != nil {
		return err
	}
	if _, err := ParseDirection(string(c.Direction)); err != nil {
		return err
	}
	return nil
}

// Validate checks the shape of a transaction. Ownership and category
// direction need the store and are checked inside the ledger write.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Type == Transfer {
		if t.TransferAccountID == nil || *t.TransferAccountID == t.AccountID || *t.TransferAccountID <= 0 {
			return ErrTransferTarget
		}
	} else if t.TransferAccountID != nil {
		return ErrUnexpectedTransfer
	}
	if len(t.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if len(t.Notes) > maxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// Window returns the budget's inclusive date range.
func (b Budget) Window() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

func (b Budget) Validate() error {
	if err := validateName(b.Name, maxNameLength, false); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseBudgetPeriod(string(b.Period)); err != nil {
		return err
	}
	if b.CategoryID != nil && *b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return b.Window().Validate()
}

func (g Goal) Validate() error {
	if err := validateName(g.Name, maxNameLength, false); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrNegativeGoalAmount
	}
	return nil
}

// Progress is the share of the target already saved, for display only.
func (g Goal) Progress() decimal.Decimal {
	return PercentageOf(g.Current.Decimal(), g.Target.Decimal())
}

// SameScope reports whether two budget category scopes are identical,
// treating two unscoped (nil) budgets as equal.
func SameScope(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func validateName(name string, max int, optional bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		if optional {
			return nil
		}
		return ErrEmptyName
	}
	if len(name) > max {
		return ErrNameTooLong
	}
	return nil
}
