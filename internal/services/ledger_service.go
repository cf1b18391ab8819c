package services

import (
	"context"
	"strings"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// LedgerService validates transactions, writes them through the ledger store
// and announces committed changes.
type LedgerService struct {
	store     LedgerStore
	publisher Publisher
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewLedgerService creates a ledger service. publisher may be nil, in which
// case no events are sent.
func NewLedgerService(store LedgerStore, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

func (s *LedgerService) Create(ctx context.Context, ownerID int64, t core.Transaction) (core.TransactionDetail, error) {
	t = normalize(t)
	if err := t.Validate(); err != nil {
		return core.TransactionDetail{}, err
	}
	detail, err := s.store.CreateTransaction(ctx, ownerID, t)
	if err != nil {
		return core.TransactionDetail{}, err
	}
	s.events.LogLedgerChange(ctx, log.OpCreate, ownerID, detail.Transaction)
	s.publish(ctx, amqp.TransactionCreated, detail.Transaction)
	return detail, nil
}

// Update replaces every mutable field of transaction t.ID.
func (s *LedgerService) Update(ctx context.Context, ownerID int64, t core.Transaction) (core.TransactionDetail, error) {
	t = normalize(t)
	if err := t.Validate(); err != nil {
		return core.TransactionDetail{}, err
	}
	detail, _, err := s.store.UpdateTransaction(ctx, ownerID, t)
	if err != nil {
		return core.TransactionDetail{}, err
	}
	s.events.LogLedgerChange(ctx, log.OpUpdate, ownerID, detail.Transaction)
	s.publish(ctx, amqp.TransactionUpdated, detail.Transaction)
	return detail, nil
}

func (s *LedgerService) Delete(ctx context.Context, ownerID, id int64) error {
	old, err := s.store.DeleteTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	s.events.LogLedgerChange(ctx, log.OpDelete, ownerID, old)
	s.publish(ctx, amqp.TransactionDeleted, old)
	return nil
}

func (s *LedgerService) Get(ctx context.Context, ownerID, id int64) (core.TransactionDetail, error) {
	return s.store.GetTransaction(ctx, ownerID, id)
}

// List returns a page of transactions. The limit defaults to DefaultListLimit
// and is capped at MaxListLimit.
func (s *LedgerService) List(ctx context.Context, ownerID int64, f core.TransactionFilter) ([]core.TransactionDetail, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, core.ErrInvalidDateRange
	}
	return s.store.ListTransactions(ctx, ownerID, f)
}

// publish sends an event after commit. Failures are logged only; the ledger
// change has already been made durable.
func (s *LedgerService) publish(ctx context.Context, typ amqp.EventType, t core.Transaction) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping ledger event", "type", string(typ))
		return
	}
	event := amqp.NewLedgerEvent(typ, t)
	if err := s.publisher.Publish(ctx, event); err != nil {
		fields := log.NewFields().WithTransaction(t).WithError(err)
		fields[log.FieldEventID] = event.ID
		s.logger.ErrorContext(ctx, "Failed to publish ledger event", fields.ToSlice()...)
	}
}

func normalize(t core.Transaction) core.Transaction {
	t.Description = strings.TrimSpace(t.Description)
	t.Notes = strings.TrimSpace(t.Notes)
	return t
}
