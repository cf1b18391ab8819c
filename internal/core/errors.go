package core

import "errors"

// ErrorKind classifies domain errors so transports can map them to responses.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindInvalidInput ErrorKind = "invalid_input"
	KindConflict     ErrorKind = "conflict"
	KindInternal     ErrorKind = "internal"
)

// Error is a typed domain error.
//
// An Error with an empty Message acts as a kind sentinel: errors.Is reports
// true for any Error of the same kind. Errors with a message only match
// themselves or their kind sentinel.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is implements errors.Is matching on kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	return t.Message == "" && t.Kind == e.Kind
}

// NewError builds an error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Kind sentinels.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInternal     = &Error{Kind: KindInternal}
)

var (
	ErrInvalidToken = NewError(KindUnauthorized, "invalid or missing API token")

	ErrUserNotFound            = NewError(KindNotFound, "user not found")
	ErrAccountNotFound         = NewError(KindNotFound, "account not found")
	ErrTransferAccountNotFound = NewError(KindNotFound, "transfer destination account not found")
	ErrCategoryNotFound        = NewError(KindNotFound, "category not found")
	ErrTransactionNotFound     = NewError(KindNotFound, "transaction not found")
	ErrBudgetNotFound          = NewError(KindNotFound, "budget not found")
	ErrGoalNotFound            = NewError(KindNotFound, "goal not found")

	ErrInvalidAmount      = NewError(KindInvalidInput, "amount must be greater than zero")
	ErrAmountOutOfRange   = NewError(KindInvalidInput, "amount out of range (max 999999999999.99)")
	ErrInvalidType        = NewError(KindInvalidInput, "type must be one of INCOME, EXPENSE, TRANSFER")
	ErrInvalidDirection   = NewError(KindInvalidInput, "direction must be INCOME or EXPENSE")
	ErrInvalidAccountType = NewError(KindInvalidInput, "invalid account type")
	ErrInvalidCurrency    = NewError(KindInvalidInput, "currency must be a 3-letter ISO code")
	ErrInvalidPeriod      = NewError(KindInvalidInput, "period must be one of weekly, monthly, quarterly, yearly")
	ErrInvalidDate        = NewError(KindInvalidInput, "invalid date, expected YYYY-MM-DD")
	ErrInvalidDateRange   = NewError(KindInvalidInput, "end date must not be before start date")
	ErrMissingDate        = NewError(KindInvalidInput, "date is required")
	ErrEmptyName          = NewError(KindInvalidInput, "name is required")
	ErrNameTooLong        = NewError(KindInvalidInput, "name too long")
	ErrDescriptionTooLong = NewError(KindInvalidInput, "description too long (max 200 characters)")
	ErrNotesTooLong       = NewError(KindInvalidInput, "notes too long (max 1000 characters)")
	ErrMissingAccount     = NewError(KindInvalidInput, "accountId is required")
	ErrMissingCategory    = NewError(KindInvalidInput, "categoryId is required")
	ErrCategoryMismatch   = NewError(KindInvalidInput, "category direction does not match transaction type")
	ErrTransferTarget     = NewError(KindInvalidInput, "transfer requires a destination account different from the source")
	ErrUnexpectedTransfer = NewError(KindInvalidInput, "transferAccountId is only allowed for TRANSFER transactions")
	ErrCurrencyMismatch   = NewError(KindInvalidInput, "transfer accounts must share the same currency")
	ErrIncomeBudget       = NewError(KindInvalidInput, "budgets can only track expense categories")
	ErrNegativeGoalAmount = NewError(KindInvalidInput, "goal current amount cannot be negative")
	ErrInvalidEmail       = NewError(KindInvalidInput, "invalid email address")

	ErrBudgetOverlap     = NewError(KindConflict, "budget overlaps an existing budget for the same category")
	ErrDuplicateCategory = NewError(KindConflict, "a category with this name already exists")
	ErrDefaultCategory   = NewError(KindConflict, "default categories cannot be modified")
	ErrCategoryInUse     = NewError(KindConflict, "category is referenced by transactions or budgets")
	ErrDirectionInUse    = NewError(KindConflict, "category direction cannot change while transactions reference it")
	ErrAccountInUse      = NewError(KindConflict, "account is referenced by transactions")
	ErrDuplicateUser     = NewError(KindConflict, "a user with this email already exists")
)

// KindOf returns the kind of the first core Error in err's chain.
// Errors outside the taxonomy are Internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
