package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	CategoryID int64
	Name       string
	Amount     Money
}

// WalletBalance is one wallet line of a BalanceSnapshot.
type WalletBalance struct {
	WalletID  int64
	Name      string
	Currency  string
	Balance   Money
	IsDefault bool
}

// BalanceSnapshot is the read model handed to presentation adapters.
// Totals are expressed in Currency, the user's display currency.
type BalanceSnapshot struct {
	UserID       int64
	Currency     string
	TakenAt      time.Time
	Wallets      []WalletBalance
	TotalIncome  Money
	TotalOutcome Money // positive magnitude
	TotalHolds   Money
	Year         int
	Month        int // 1-12
	ByCategory   []CategoryAmount
}

// BudgetLine is one category row of a weekly budget report.
type BudgetLine struct {
	CategoryID int64
	Category   string
	Currency   string
	Budgeted   Money
	Spent      Money
	Remaining  Money
	Percentage float64
}

// BudgetReport groups the lines for one user and period.
type BudgetReport struct {
	UserID int64
	Year   int
	Month  int
	Lines  []BudgetLine
}
