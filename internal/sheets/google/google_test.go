package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{ServiceAccountJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr string
	}{
		{name: "inline json wins", cfg: Config{ServiceAccountJSON: `{"a":1}`, ServiceAccountFile: file}, want: `{"a":1}`},
		{name: "file", cfg: Config{ServiceAccountFile: file}, want: `{"type":"service_account"}`},
		{name: "missing file", cfg: Config{ServiceAccountFile: filepath.Join(dir, "nope.json")}, wantErr: "read service account file"},
		{name: "nothing", cfg: Config{}, wantErr: "missing service account credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadCredentials(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || string(got) != tt.want {
				t.Fatalf("got %q, %v", got, err)
			}
		})
	}
}

func TestClient_UninitialisedService(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "x", TransactionsSheet: "T", SummarySheet: "S"})
	if _, err := c.AppendTransaction(context.Background(), core.Transaction{ID: 1}); err == nil {
		t.Fatal("expected error without a sheets service")
	}
	if _, err := c.WriteAccountSummary(context.Background(), core.BalanceSnapshot{AccountID: 1}); err == nil {
		t.Fatal("expected error without a sheets service")
	}
}

func TestTransactionRow(t *testing.T) {
	row := transactionRow(core.Transaction{
		ID:           9,
		AccountID:    2,
		Amount:       decimal.RequireFromString("-50"),
		Timestamp:    time.Date(2024, 3, 13, 13, 0, 0, 0, time.FixedZone("CET", 3600)),
		Product:      "Groceries",
		SpendingType: core.Spending,
	})

	want := []any{int64(9), int64(2), "2024-03-13T12:00:00Z", "Spending", "-50.00", "Groceries", ""}
	if len(row) != len(want) {
		t.Fatalf("row has %d columns, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestSummaryRow(t *testing.T) {
	row := summaryRow(core.BalanceSnapshot{
		AccountID:   3,
		Balance:     decimal.RequireFromString("750"),
		Daily:       decimal.RequireFromString("250"),
		Investments: decimal.RequireFromString("200"),
	}, time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC))

	if row[0] != int64(3) || row[1] != "750.00" || row[2] != "250.00" || row[3] != "0.00" || row[6] != "200.00" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[7] != "2024-03-13T12:00:00Z" {
		t.Errorf("updated at = %v", row[7])
	}
}

func TestIndexIDs(t *testing.T) {
	values := [][]any{
		{"transaction_id"},
		{"1"},
		{},
		{"  7 "},
		{"#note"},
		{"-3"},
		{float64(12)},
	}

	got := indexIDs(values)
	want := map[int64]int{1: 2, 7: 4, 12: 7}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for id, row := range want {
		if got[id] != row {
			t.Errorf("id %d at row %d, want %d", id, got[id], row)
		}
	}
}

func TestRowFromRange(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"Accounts!A7:H7", 7, true},
		{"'My Sheet'!A120:G120", 120, true},
		{"Transactions!A:G", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := rowFromRange(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("rowFromRange(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
