package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"smartspend/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestParseTransactions(t *testing.T) {
	values := [][]interface{}{
		{"Year", "Month", "Day", "Amount", "Description"}, // header
		{"2024", "1", "5", "1.000,50", "salary"},
		{2024, 2, "", 12.5},
		{"", "", "", ""},         // blank
		{"2024", "3", "1"},       // too short
		{"2024", "3", "x", "10"}, // bad day
		{"2024", "3", "1", "€ 7,25", "note", "extra"},
	}

	got, skipped := parseTransactions(values)
	if skipped != 3 {
		t.Fatalf("expected 3 skipped rows, got %d", skipped)
	}
	want := []core.Transaction{
		{Year: 2024, Month: 1, Day: 5, Amount: 1000.5, Description: "salary"},
		{Year: 2024, Month: 2, Day: 0, Amount: 12.5},
		{Year: 2024, Month: 3, Day: 1, Amount: 7.25, Description: "note"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d transactions, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestParseTransactions_KeepsInvalidNumericRows(t *testing.T) {
	values := [][]interface{}{
		{"Year", "Month", "Day", "Amount"},
		{"2024", "13", "1", "500"},
		{"0", "2", "", "3"},
		{"2024", "2", "", "-20"},
		{"2024", "1", "1", "10"},
	}

	got, skipped := parseTransactions(values)
	if skipped != 1 {
		t.Fatalf("only the header should be skipped, got %d", skipped)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(got), got)
	}

	checks := []error{core.ErrInvalidPeriod, core.ErrInvalidPeriod, core.ErrInvalidAmount, nil}
	for i, want := range checks {
		err := got[i].Validate()
		if want == nil {
			if err != nil {
				t.Fatalf("row %d: unexpected error %v", i, err)
			}
			continue
		}
		if !errors.Is(err, want) {
			t.Fatalf("row %d: expected %v, got %v", i, want, err)
		}
	}
	if got[2].Amount != -20 {
		t.Fatalf("negative amount lost: %+v", got[2])
	}
}

// fakeSheets is a minimal Sheets v4 values endpoint keyed by tab name.
type fakeSheets struct {
	mu   sync.Mutex
	tabs map[string][][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Path: /v4/spreadsheets/{id}/values/{range}[:append]
	_, rest, _ := strings.Cut(r.URL.Path, "/values/")
	rng := strings.TrimSuffix(rest, ":append")
	tab, _, _ := strings.Cut(rng, "!")

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		rows := f.tabs[tab]
		if strings.HasSuffix(rng, "!B:B") {
			col := make([][]interface{}, 0, len(rows))
			for _, row := range rows {
				if len(row) > 1 {
					col = append(col, []interface{}{row[1]})
				}
			}
			rows = col
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": rows})
	case r.Method == http.MethodPost && strings.HasSuffix(rest, ":append"):
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.Unmarshal(body, &vr)
		f.tabs[tab] = append(f.tabs[tab], vr.Values...)
		n := len(f.tabs[tab])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": tab + "!A" + strconv.Itoa(n) + ":E" + strconv.Itoa(n)},
		})
	default:
		http.Error(w, "unsupported", http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, tabs map[string][][]interface{}) *Client {
	t.Helper()
	srv := httptest.NewServer(&fakeSheets{tabs: tabs})
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new sheets service: %v", err)
	}
	return NewWithService(svc, Config{SpreadsheetID: "sheet-id"})
}

func TestClient_SubmitAndList(t *testing.T) {
	c := newFakeClient(t, map[string][][]interface{}{
		"Earnings": {{"Year", "Month", "Day", "Amount", "Description"}},
	})
	ctx := context.Background()

	ref, err := c.Submit(ctx, core.Earning, core.Transaction{Year: 2024, Month: 4, Day: 2, Amount: 99.5, Description: "bonus"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ref != "Earnings!A2:E2" {
		t.Fatalf("unexpected ref %q", ref)
	}

	got, err := c.ListTransactions(ctx, core.Earning)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0] != (core.Transaction{Year: 2024, Month: 4, Day: 2, Amount: 99.5, Description: "bonus"}) {
		t.Fatalf("unexpected transactions: %+v", got)
	}

	spending, err := c.ListTransactions(ctx, core.Spending)
	if err != nil || len(spending) != 0 {
		t.Fatalf("expected empty spending, got %+v err=%v", spending, err)
	}
}

func TestClient_SubmitValidates(t *testing.T) {
	c := &Client{cfg: Config{}.withDefaults()} // svc is nil; validation must fail first

	_, err := c.Submit(context.Background(), core.Earning, core.Transaction{Year: 2024, Month: 0, Amount: 1})
	if !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	_, err = c.Submit(context.Background(), core.Kind("x"), core.Transaction{Year: 2024, Month: 1, Amount: 1})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if _, err := c.ListTransactions(context.Background(), core.Spending); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestClient_RegisterUser(t *testing.T) {
	c := newFakeClient(t, map[string][][]interface{}{})
	ctx := context.Background()
	u := core.User{ID: "u1", Name: "Ada", Email: "Ada@Example.com", PasswordHash: "h", CreatedAt: time.Unix(0, 0)}

	if _, err := c.RegisterUser(ctx, u); err != nil {
		t.Fatalf("register: %v", err)
	}
	u.ID = "u2"
	u.Email = "ada@example.com"
	if _, err := c.RegisterUser(ctx, u); !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
}
