package memory

import (
	"context"
	"testing"
	"time"

	"finledger/internal/core"
)

func TestStoreExport(t *testing.T) {
	s := New()
	snap := core.BalanceSnapshot{
		UserID:   4,
		Currency: "USD",
		TakenAt:  time.Date(2024, time.March, 18, 9, 0, 0, 0, time.UTC),
		Wallets: []core.WalletBalance{
			{WalletID: 1, Name: "Cash", Currency: "USD", Balance: core.MustAmount("12.5")},
		},
		TotalIncome: core.MustAmount("100"),
	}

	ref, err := s.Export(context.Background(), snap)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if ref != "mem:1-4" {
		t.Errorf("ref = %q, want mem:1-4", ref)
	}
	ref, err = s.Export(context.Background(), snap)
	if err != nil || ref != "mem:5-8" {
		t.Fatalf("second export ref=%q err=%v", ref, err)
	}
	if s.Snapshots() != 2 || len(s.Rows()) != 8 {
		t.Errorf("snapshots=%d rows=%d", s.Snapshots(), len(s.Rows()))
	}
}

func TestStoreExportRejectsAnonymousSnapshot(t *testing.T) {
	if _, err := New().Export(context.Background(), core.BalanceSnapshot{}); err == nil {
		t.Fatal("expected error for snapshot without user")
	}
}
