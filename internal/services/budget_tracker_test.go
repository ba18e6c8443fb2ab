package services

import (
	"context"
	"errors"
	"testing"

	"finledger/internal/amqp"
	"finledger/internal/core"
)

func TestBudgetTracker_WeeklyReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	usd := f.wallet(t, 1, "Cash", "USD")
	eur := f.wallet(t, 1, "Euro", "EUR")
	f.record(t, usd, core.Income, "1000", "Salary")
	f.record(t, usd, core.Outcome, "30", "Supermarket")
	f.record(t, eur, core.Outcome, "9", "Lunch")
	f.record(t, usd, core.Outcome, "20", "Taxi")

	if _, err := f.budget.SetBudget(ctx, BudgetParams{
		UserID: 1, Category: "food", Amount: core.MustAmount("200"), Currency: "USD", Month: 3, Year: 2024,
	}); err != nil {
		t.Fatalf("SetBudget food: %v", err)
	}
	if _, err := f.budget.SetBudget(ctx, BudgetParams{
		UserID: 1, Category: core.CategoryTransport, Amount: core.Money{}, Currency: "USD", Month: 3, Year: 2024,
	}); err != nil {
		t.Fatalf("SetBudget transport: %v", err)
	}

	report, err := f.budget.WeeklyReport(ctx, 1, testNow)
	if err != nil {
		t.Fatalf("WeeklyReport: %v", err)
	}
	if report.Year != 2024 || report.Month != 3 {
		t.Errorf("period = %d-%d", report.Year, report.Month)
	}
	if len(report.Lines) != 2 {
		t.Fatalf("lines = %+v", report.Lines)
	}

	lines := map[string]core.BudgetLine{}
	for _, l := range report.Lines {
		lines[l.Category] = l
	}

	food := lines[core.CategoryFood]
	// 30 USD plus 9 EUR (10 USD).
	if food.Spent.String() != "40.00" {
		t.Errorf("food spent = %s, want 40.00", food.Spent)
	}
	if food.Remaining.String() != "160.00" {
		t.Errorf("food remaining = %s, want 160.00", food.Remaining)
	}
	if food.Percentage != 20 {
		t.Errorf("food percentage = %v, want 20", food.Percentage)
	}

	transport := lines[core.CategoryTransport]
	if transport.Spent.String() != "20.00" || transport.Percentage != 0 {
		t.Errorf("transport line = %+v, want spent 20.00 at 0%%", transport)
	}
	if transport.Remaining.String() != "-20.00" {
		t.Errorf("transport remaining = %s, want -20.00", transport.Remaining)
	}
}

func TestBudgetTracker_SetBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.budget.SetBudget(ctx, BudgetParams{
		UserID: 1, Category: core.CategoryFood, Amount: core.MustAmount("100"), Currency: "USD", Month: 3, Year: 2024,
	})
	if err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	second, err := f.budget.SetBudget(ctx, BudgetParams{
		UserID: 1, Category: core.CategoryFood, Amount: core.MustAmount("150"), Currency: "EUR", Month: 3, Year: 2024,
	})
	if err != nil {
		t.Fatalf("SetBudget replace: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("replace created a new row: %d vs %d", second.ID, first.ID)
	}

	budgets, err := f.budget.ListBudgets(ctx, 1, 3, 2024)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Amount.String() != "150.00" || budgets[0].Currency != "EUR" {
		t.Errorf("budgets = %+v", budgets)
	}

	tests := []struct {
		name    string
		params  BudgetParams
		wantErr error
	}{
		{"income category", BudgetParams{UserID: 1, Category: core.CategorySalary, Amount: core.MustAmount("1"), Currency: "USD", Month: 3, Year: 2024}, core.ErrInvalidInput},
		{"unknown category", BudgetParams{UserID: 1, Category: "Yachts", Amount: core.MustAmount("1"), Currency: "USD", Month: 3, Year: 2024}, core.ErrNotFound},
		{"month 13", BudgetParams{UserID: 1, Category: core.CategoryFood, Amount: core.MustAmount("1"), Currency: "USD", Month: 13, Year: 2024}, core.ErrInvalidMonth},
		{"negative", BudgetParams{UserID: 1, Category: core.CategoryFood, Amount: core.MustAmount("-1"), Currency: "USD", Month: 3, Year: 2024}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.budget.SetBudget(ctx, tt.params); !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetBudget error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetTracker_RunWeeklyReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, user := range []int64{1, 2} {
		if _, err := f.budget.SetBudget(ctx, BudgetParams{
			UserID: user, Category: core.CategoryFood, Amount: core.MustAmount("50"), Currency: "USD", Month: 3, Year: 2024,
		}); err != nil {
			t.Fatalf("SetBudget: %v", err)
		}
	}
	// Another month is not reported.
	if _, err := f.budget.SetBudget(ctx, BudgetParams{
		UserID: 3, Category: core.CategoryFood, Amount: core.MustAmount("50"), Currency: "USD", Month: 4, Year: 2024,
	}); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}

	sent, err := f.budget.RunWeeklyReports(ctx, testNow)
	if err != nil {
		t.Fatalf("RunWeeklyReports: %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if n := f.events.count(amqp.EventBudgetWeeklyReport); n != 2 {
		t.Errorf("report events = %d, want 2", n)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		spent, budgeted string
		want            float64
	}{
		{"0", "100", 0},
		{"50", "0", 0},
		{"33.33", "100", 33.3},
		{"1", "3", 33.3},
		{"250", "100", 250},
	}
	for _, tt := range tests {
		got := percentage(core.MustAmount(tt.spent), core.MustAmount(tt.budgeted))
		if got != tt.want {
			t.Errorf("percentage(%s, %s) = %v, want %v", tt.spent, tt.budgeted, got, tt.want)
		}
	}
}
