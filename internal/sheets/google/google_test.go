package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finledger/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Snapshots", 2024, "2024 Snapshots"},
		{"  Snapshots ", 2025, "2025 Snapshots"},
		{"2023 Snapshots", 2024, "2023 Snapshots"},
		{"", 2024, ""},
		{"12345", 2024, "2024 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestClient_Export_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	_, err := c.Export(context.Background(), core.BalanceSnapshot{UserID: 1})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestClient_Export(t *testing.T) {
	var (
		gotPath string
		gotBody gsheet.ValueRange
		gotOpt  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotOpt = r.URL.Query().Get("valueInputOption")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","updates":{"updatedRange":"'2024 Snapshots'!A2:F5","updatedRows":4}}`)
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	c := New(svc, "sheet-1", "Snapshots")

	ref, err := c.Export(context.Background(), core.BalanceSnapshot{
		UserID:   7,
		Currency: "USD",
		TakenAt:  time.Date(2024, time.March, 18, 9, 0, 0, 0, time.UTC),
		Wallets: []core.WalletBalance{
			{WalletID: 1, Name: "Cash", Currency: "USD", Balance: core.MustAmount("10")},
		},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if ref != "'2024 Snapshots'!A2:F5" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-1/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotPath, "2024 Snapshots") {
		t.Errorf("path %q does not target the year sheet", gotPath)
	}
	if gotOpt != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q", gotOpt)
	}
	if len(gotBody.Values) != 4 {
		t.Fatalf("rows sent = %d, want 4", len(gotBody.Values))
	}
	if gotBody.Values[0][3] != "Cash" || gotBody.Values[0][5] != "10.00" {
		t.Errorf("first row = %v", gotBody.Values[0])
	}
}
