package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
)

// LedgerEvent announces a committed change to the ledger. It carries the
// transaction state after the change (before it, for deletes); consumers
// that need joined names fetch the transaction from the database.
type LedgerEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	OwnerID       int64     `json:"owner_id"`
	TransactionID int64     `json:"transaction_id"`
	AccountIDs    []int64   `json:"account_ids"`
	CategoryID    int64     `json:"category_id"`
	TxType        string    `json:"tx_type"`
	Amount        string    `json:"amount"`
	Date          string    `json:"date"`
	Description   string    `json:"description,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent builds an event for t with a fresh id.
func NewLedgerEvent(typ EventType, t core.Transaction) *LedgerEvent {
	accounts := []int64{t.AccountID}
	if t.TransferAccountID != nil {
		accounts = append(accounts, *t.TransferAccountID)
	}
	return &LedgerEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		OwnerID:       t.OwnerID,
		TransactionID: t.ID,
		AccountIDs:    accounts,
		CategoryID:    t.CategoryID,
		TxType:        string(t.Type),
		Amount:        t.Amount.String(),
		Date:          t.Date.String(),
		Description:   t.Description,
		Timestamp:     time.Now(),
	}
}

// AffectsSpending reports whether the event can change a budget evaluation.
func (m *LedgerEvent) AffectsSpending() bool {
	return m.TxType == string(core.Expense)
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
