package sheets

import (
	"context"
	"strconv"

	"finledger/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotExporter appends a balance snapshot to an external sheet.
	SnapshotExporter interface {
		Export(ctx context.Context, snap core.BalanceSnapshot) (rowRef string, err error)
	}
)

// Row kinds written by SnapshotRows.
const (
	RowWallet   = "wallet"
	RowTotal    = "total"
	RowCategory = "category"
)

// SnapshotRows flattens a snapshot into sheet rows:
// date, user, kind, name, currency, amount.
// Wallet rows come first, then income/outcome/holds totals, then this
// month's categories.
func SnapshotRows(s core.BalanceSnapshot) [][]any {
	date := s.TakenAt.Format("2006-01-02")
	user := strconv.FormatInt(s.UserID, 10)

	rows := make([][]any, 0, len(s.Wallets)+3+len(s.ByCategory))
	for _, w := range s.Wallets {
		rows = append(rows, []any{date, user, RowWallet, w.Name, w.Currency, w.Balance.String()})
	}
	rows = append(rows,
		[]any{date, user, RowTotal, "income", s.Currency, s.TotalIncome.String()},
		[]any{date, user, RowTotal, "outcome", s.Currency, s.TotalOutcome.String()},
		[]any{date, user, RowTotal, "holds", s.Currency, s.TotalHolds.String()},
	)
	for _, c := range s.ByCategory {
		rows = append(rows, []any{date, user, RowCategory, c.Name, s.Currency, c.Amount.String()})
	}
	return rows
}
