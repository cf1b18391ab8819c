package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/sheets/memory"
)

type fakeAlerts struct {
	mu     sync.Mutex
	events []string
	sweeps atomic.Int32
	err    error
	raised int
}

func (f *fakeAlerts) HandleEvent(_ context.Context, ev *amqp.LedgerEvent) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.events = append(f.events, ev.ID)
	return f.raised, nil
}

func (f *fakeAlerts) Sweep(context.Context) (int, error) {
	f.sweeps.Add(1)
	return 0, nil
}

// chanSource delivers queued events, then blocks until cancelled.
type chanSource struct {
	events  []*amqp.LedgerEvent
	results chan error
}

func (s *chanSource) Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, ev := range s.events {
		s.results <- handler(ctx, ev)
	}
	<-ctx.Done()
	return ctx.Err()
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func expenseEvent(typ amqp.EventType) *amqp.LedgerEvent {
	return amqp.NewLedgerEvent(typ, core.Transaction{
		ID: 1, OwnerID: 1, AccountID: 1, CategoryID: 2, Type: core.Expense,
		Amount: core.Cents(1250), Date: core.NewDate(2025, 6, 1), Description: "Lunch",
	})
}

func TestHandleEventExportsRow(t *testing.T) {
	alerts := &fakeAlerts{raised: 1}
	exp := memory.New()
	w := NewLedgerWorker(alerts, exp, quietLogger())

	ev := expenseEvent(amqp.TransactionDeleted)
	if err := w.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(alerts.events) != 1 || alerts.events[0] != ev.ID {
		t.Fatalf("alerts not evaluated: %v", alerts.events)
	}
	rows := exp.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 exported row, got %d", len(rows))
	}
	if rows[0].Amount != "-12.50" || rows[0].EventID != ev.ID {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestHandleEventAlertFailureRequeues(t *testing.T) {
	alerts := &fakeAlerts{err: errors.New("database locked")}
	exp := memory.New()
	w := NewLedgerWorker(alerts, exp, quietLogger())

	if err := w.HandleEvent(context.Background(), expenseEvent(amqp.TransactionCreated)); err == nil {
		t.Fatal("expected alert failure to be returned")
	}
	if len(exp.Rows()) != 0 {
		t.Error("row exported although the event will be redelivered")
	}
}

func TestHandleEventExportFailureIsDropped(t *testing.T) {
	exp := memory.New()
	exp.FailWith(errors.New("quota exceeded"))
	w := NewLedgerWorker(&fakeAlerts{}, exp, quietLogger())

	if err := w.HandleEvent(context.Background(), expenseEvent(amqp.TransactionCreated)); err != nil {
		t.Fatalf("export failure should not fail the event: %v", err)
	}
}

func TestHandleEventWithoutExporter(t *testing.T) {
	w := NewLedgerWorker(&fakeAlerts{}, nil, quietLogger())
	if err := w.HandleEvent(context.Background(), expenseEvent(amqp.TransactionUpdated)); err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func TestRunConsumesAndSweeps(t *testing.T) {
	alerts := &fakeAlerts{}
	exp := memory.New()
	w := NewLedgerWorker(alerts, exp, quietLogger())
	src := &chanSource{
		events:  []*amqp.LedgerEvent{expenseEvent(amqp.TransactionCreated), expenseEvent(amqp.TransactionUpdated)},
		results: make(chan error, 2),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, src, 10*time.Millisecond) }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-src.results:
			if err != nil {
				t.Fatalf("event %d: %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}

	deadline := time.After(2 * time.Second)
	for alerts.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected startup and periodic sweeps, got %d", alerts.sweeps.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if len(exp.Rows()) != 2 {
		t.Errorf("expected 2 exported rows, got %d", len(exp.Rows()))
	}
}

func TestRunWithoutSource(t *testing.T) {
	alerts := &fakeAlerts{}
	w := NewLedgerWorker(alerts, nil, quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx, nil, time.Hour); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerts.sweeps.Load() != 1 {
		t.Errorf("expected only the startup sweep, got %d", alerts.sweeps.Load())
	}
}
