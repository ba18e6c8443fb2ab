package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"finledger/internal/core"
)

// Row-level aggregates returned by the reporting queries.
type (
	// TypeTotal is the sum of transaction amounts of one type in one currency.
	TypeTotal struct {
		Type     core.TxType
		Currency string
		Amount   core.Money
	}

	// CategoryTotal is the sum of outcome amounts per category and currency.
	// CategoryID is nil for uncategorized rows.
	CategoryTotal struct {
		CategoryID *int64
		Name       string
		Currency   string
		Amount     core.Money
	}

	CurrencyTotal struct {
		Currency string
		Amount   core.Money
	}

	// WalletDrift compares a wallet's cached balance with the balance derived
	// from its transactions and active holds.
	WalletDrift struct {
		WalletID     int64
		Name         string
		Currency     string
		Cached       core.Money
		Transactions core.Money
		ActiveHolds  core.Money
	}
)

// Derived is Σ transactions − Σ active holds.
func (d WalletDrift) Derived() core.Money {
	return d.Transactions.Sub(d.ActiveHolds)
}

func (d WalletDrift) Consistent() bool {
	return d.Cached == d.Derived()
}

// TransferParams describes both legs of a transfer. Debit is in the source
// wallet currency, Credit already converted to the target wallet currency.
type TransferParams struct {
	UserID      int64
	FromID      int64
	ToID        int64
	Debit       core.Money
	Credit      core.Money
	Description string
	At          time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s.String)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
