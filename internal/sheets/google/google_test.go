package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	ports "bilancio/internal/sheets"

	goption "google.golang.org/api/option"
)

// fakeSheetsAPI serves the handful of Sheets endpoints the exporter calls.
type fakeSheetsAPI struct {
	mu       sync.Mutex
	titles   []string
	added    []string
	headers  int
	appended [][]any
	ranges   []string
	gets     int
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/v4/spreadsheets/sheet-id":
		f.gets++
		sheets := make([]map[string]any, 0, len(f.titles))
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && path == "/v4/spreadsheets/sheet-id:batchUpdate":
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		json.Unmarshal(body, &req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
			f.titles = append(f.titles, rq.AddSheet.Properties.Title)
		}
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/v4/spreadsheets/sheet-id/values/"):
		f.headers++
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr struct {
			Values [][]any `json:"values"`
		}
		json.Unmarshal(body, &vr)
		f.appended = append(f.appended, vr.Values...)
		rng := strings.TrimSuffix(strings.TrimPrefix(path, "/v4/spreadsheets/sheet-id/values/"), ":append")
		f.ranges = append(f.ranges, rng)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": rng + "2"},
		})
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := NewWithOptions(context.Background(), "sheet-id", "Transactions",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func sampleRow(date string) ports.Row {
	return ports.Row{
		LoggedAt:      "2025-06-10 12:00:00",
		Event:         "transaction.created",
		Date:          date,
		Type:          "TRANSFER",
		Amount:        "25.00",
		Description:   "To savings",
		TransactionID: 7,
		AccountIDs:    []int64{1, 2},
		CategoryID:    3,
		OwnerID:       1,
		EventID:       "evt-1",
	}
}

func TestExportCreatesYearSheetOnce(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"2024 Transactions"}}
	c := newTestClient(t, api)
	ctx := context.Background()

	ref, err := c.Export(ctx, sampleRow("2025-06-10"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(ref, "2025 Transactions") {
		t.Errorf("unexpected row ref %q", ref)
	}
	if _, err := c.Export(ctx, sampleRow("2025-07-01")); err != nil {
		t.Fatalf("second export: %v", err)
	}
	if _, err := c.Export(ctx, sampleRow("2024-12-31")); err != nil {
		t.Fatalf("export to existing sheet: %v", err)
	}

	if len(api.added) != 1 || api.added[0] != "2025 Transactions" {
		t.Fatalf("expected one new sheet, got %v", api.added)
	}
	if api.headers != 1 {
		t.Errorf("expected one header write, got %d", api.headers)
	}
	if api.gets != 1 {
		t.Errorf("expected spreadsheet metadata to be read once, got %d", api.gets)
	}
	if len(api.appended) != 3 {
		t.Fatalf("expected 3 appended rows, got %d", len(api.appended))
	}
	if got := api.appended[0][7]; got != "1 → 2" {
		t.Errorf("accounts column = %v, want 1 → 2", got)
	}
	if api.ranges[2] != "'2024 Transactions'!A:K" {
		t.Errorf("unexpected append range %q", api.ranges[2])
	}
}

func TestExportRejectsInvalidDate(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api)
	if _, err := c.Export(context.Background(), sampleRow("")); err == nil {
		t.Fatal("expected error for row without date")
	}
	if api.gets != 0 {
		t.Errorf("no API call expected for invalid rows")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := NewWithOptions(context.Background(), " ", "Transactions"); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", SheetName: "Transactions"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/non/existent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Transactions", 2025, "2025 Transactions"},
		{"Ledger", 2024, "2024 Ledger"},
		{"", 2023, ""},
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"Ledger":            "Ledger",
		"2025 Transactions": "'2025 Transactions'",
		"Bob's":             "'Bob''s'",
	}
	for in, want := range tests {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}
