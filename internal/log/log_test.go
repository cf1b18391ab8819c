package log

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})
	logger.Info("hello")
	if !strings.Contains(buf.String(), "component=ledger") {
		t.Fatalf("component missing: %s", buf.String())
	}
	if strings.Count(buf.String(), "component=") != 1 {
		t.Fatalf("component logged more than once: %s", buf.String())
	}

	buf.Reset()
	logger.WithComponent(ComponentWorker).Info("child")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Fatalf("child component missing: %s", buf.String())
	}
}

func TestErrorType(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{core.ErrInvalidToken, ErrorTypeAuth},
		{fmt.Errorf("x: %w", core.ErrBudgetNotFound), ErrorTypeNotFound},
		{core.ErrCategoryMismatch, ErrorTypeValidation},
		{core.ErrBudgetOverlap, ErrorTypeConflict},
		{errors.New("boom"), ErrorTypeInternal},
	}
	for _, tc := range cases {
		if got := ErrorType(tc.err); got != tc.want {
			t.Errorf("ErrorType(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to a default logger")
	}

	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})
	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id not propagated: %s", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	ctx := context.Background()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)

	sl.LogHTTPEnd(ctx, r, "req-2", http.StatusConflict, 15*time.Millisecond, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "status_code=409") {
		t.Fatalf("unexpected end log: %s", buf.String())
	}

	buf.Reset()
	sl.LogLedgerChange(ctx, OpCreate, 7, core.Transaction{ID: 3, AccountID: 1, Type: core.Expense, Amount: core.Cents(1500)})
	for _, want := range []string{"owner_id=7", "transaction_id=3", "amount_cents=1500", "operation=create"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %s in %s", want, buf.String())
		}
	}

	buf.Reset()
	sl.LogError(ctx, "failed", core.ErrAccountNotFound, OpUpdate, nil)
	if !strings.Contains(buf.String(), "error_type=not_found_error") {
		t.Fatalf("missing error type: %s", buf.String())
	}
}
