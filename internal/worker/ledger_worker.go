package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
)

// AlertRaiser re-evaluates budgets after ledger changes.
type AlertRaiser interface {
	HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) (int, error)
	Sweep(ctx context.Context) (int, error)
}

// EventSource delivers ledger events to a handler until ctx is done.
type EventSource interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// LedgerWorker consumes ledger events, raises budget alerts and mirrors
// every change to an export sheet. A periodic sweep re-evaluates all active
// budgets to recover from missed events.
type LedgerWorker struct {
	alerts   AlertRaiser
	exporter sheets.Exporter
	logger   *log.Logger
}

// NewLedgerWorker creates a worker. exporter may be nil to disable exports.
func NewLedgerWorker(alerts AlertRaiser, exporter sheets.Exporter, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerWorker{
		alerts:   alerts,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one ledger event. An alert failure is returned so
// the event is redelivered; export failures are logged and dropped.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventID, ev.ID,
		"type", ev.Type,
		log.FieldTransactionID, ev.TransactionID,
		log.FieldOwnerID, ev.OwnerID)

	raised, err := w.alerts.HandleEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("evaluate budgets for event %s: %w", ev.ID, err)
	}
	if raised > 0 {
		w.logger.InfoContext(ctx, "Budget alerts raised from event",
			log.FieldEventID, ev.ID, "count", raised)
	}

	if w.exporter != nil {
		ref, err := w.exporter.Export(ctx, sheets.RowFromEvent(ev))
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to export ledger event",
				log.FieldEventID, ev.ID,
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeNetwork)
			return nil
		}
		w.logger.InfoContext(ctx, "Exported ledger event",
			log.FieldEventID, ev.ID, "sheets_ref", ref)
	}
	return nil
}

// Sweep re-evaluates every active budget once.
func (w *LedgerWorker) Sweep(ctx context.Context) error {
	raised, err := w.alerts.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("budget sweep: %w", err)
	}
	w.logger.DebugContext(ctx, "Periodic sweep finished", "raised", raised)
	return nil
}

// Run performs a startup sweep, then consumes events from src (when not nil)
// and sweeps every interval until ctx is cancelled or consumption fails.
func (w *LedgerWorker) Run(ctx context.Context, src EventSource, interval time.Duration) error {
	w.logger.InfoContext(ctx, "Performing startup budget sweep")
	if err := w.Sweep(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup sweep failed", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if src != nil {
		g.Go(func() error {
			return src.Consume(ctx, w.HandleEvent)
		})
	} else {
		w.logger.InfoContext(ctx, "Skipping event consumption - no event source configured")
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.Sweep(ctx); err != nil {
					w.logger.ErrorContext(ctx, "Periodic sweep failed", log.FieldError, err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
