package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12,345", 1235, true},
		{" 2.50 ", 250, true},
		{"1500", 150000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"999999999999.99", 99999999999999, true},
		{"1000000000000", 0, false},
		{"184467440737095517.16", 0, false},
		{"100000000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("%q expected invalid input, got %v", tc.in, err)
			}
		}
	}
}

func TestParseSignedAmount(t *testing.T) {
	m, err := ParseSignedAmount("-250.5")
	if err != nil || m.Cents != -25050 {
		t.Fatalf("expected -25050, got %d (err=%v)", m.Cents, err)
	}
	if m, err := ParseSignedAmount("0"); err != nil || !m.IsZero() {
		t.Fatalf("expected zero, got %d (err=%v)", m.Cents, err)
	}
	if _, err := ParseSignedAmount("x"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ParseSignedAmount("-100000000000000000000"); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		1234:   "12.34",
		-1250:  "-12.50",
		100000: "1000.00",
	}
	for cents, want := range cases {
		if got := Cents(cents).String(); got != want {
			t.Errorf("%d: expected %q, got %q", cents, want, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Cents(123456))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"1234.56"` {
		t.Fatalf("unexpected encoding %s", b)
	}

	cases := []struct {
		in   string
		want int64
	}{
		{`"12.34"`, 1234},
		{`12.5`, 1250},
		{`"-3"`, -300},
		{`null`, 0},
	}
	for _, tc := range cases {
		var m Money
		if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if m.Cents != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.in, tc.want, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"ten"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	if err := json.Unmarshal([]byte(`184467440737095517.16`), &m); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for huge amount, got %v", err)
	}
}

func TestPercentageOf(t *testing.T) {
	cases := []struct {
		part, whole string
		want        string
	}{
		{"900", "1000", "90"},
		{"1000.01", "1000", "100"},
		{"1", "3", "33.33"},
		{"2", "3", "66.67"},
		{"5", "0", "0"},
	}
	for _, tc := range cases {
		got := PercentageOf(decimal.RequireFromString(tc.part), decimal.RequireFromString(tc.whole))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("%s/%s: expected %s, got %s", tc.part, tc.whole, tc.want, got)
		}
	}
}
