package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("create budget: %w", ErrBudgetOverlap)
	if !errors.Is(wrapped, ErrBudgetOverlap) {
		t.Fatalf("expected wrapped error to match itself")
	}
	if !errors.Is(wrapped, ErrConflict) {
		t.Fatalf("expected wrapped error to match its kind")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("unexpected match on a different kind")
	}
	if errors.Is(ErrAccountNotFound, ErrCategoryNotFound) {
		t.Fatalf("specific errors of the same kind must not match each other")
	}

	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{ErrInvalidToken, KindUnauthorized},
		{fmt.Errorf("x: %w", ErrAccountNotFound), KindNotFound},
		{ErrCategoryMismatch, KindInvalidInput},
		{ErrDuplicateCategory, KindConflict},
		{errors.New("disk full"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("%v: expected %q, got %q", tc.err, tc.want, got)
		}
	}
}
