package sheets

import (
	"context"
	"strings"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// Header is the first row of every export sheet.
var Header = []string{"Logged At", "Event", "Date", "Type", "Amount", "Description", "Transaction", "Accounts", "Category", "Owner", "Event ID"}

// Row is one exported ledger change.
type Row struct {
	LoggedAt      string
	Event         string
	Date          string
	Type          string
	Amount        string
	Description   string
	TransactionID int64
	AccountIDs    []int64
	CategoryID    int64
	OwnerID       int64
	EventID       string
}

// Exporter appends ledger changes to an external sheet.
type Exporter interface {
	Export(ctx context.Context, row Row) (rowRef string, err error)
}

// RowFromEvent flattens a ledger event. Deleted transactions are exported
// with a negated amount. Updates carry the new amount, not a delta, so the
// Amount column is a change log rather than a running total.
func RowFromEvent(ev *amqp.LedgerEvent) Row {
	amount := ev.Amount
	if ev.Type == amqp.TransactionDeleted && amount != "" && !strings.HasPrefix(amount, "-") && amount != "0.00" {
		amount = "-" + amount
	}
	return Row{
		LoggedAt:      ev.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		Event:         string(ev.Type),
		Date:          ev.Date,
		Type:          ev.TxType,
		Amount:        amount,
		Description:   ev.Description,
		TransactionID: ev.TransactionID,
		AccountIDs:    append([]int64(nil), ev.AccountIDs...),
		CategoryID:    ev.CategoryID,
		OwnerID:       ev.OwnerID,
		EventID:       ev.ID,
	}
}

// Year returns the calendar year of the transaction date, or 0 when the
// date is malformed.
func (r Row) Year() int {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return 0
	}
	return d.Year()
}
