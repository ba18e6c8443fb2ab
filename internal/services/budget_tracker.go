package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/amqp"
	"finledger/internal/core"
	applog "finledger/internal/log"
)

// BudgetTracker compares monthly category spending with budgets. It only
// reads the ledger.
type BudgetTracker struct {
	ledger *LedgerService
}

func NewBudgetTracker(ledger *LedgerService) *BudgetTracker {
	return &BudgetTracker{ledger: ledger}
}

type BudgetParams struct {
	UserID   int64
	Category string
	Amount   core.Money
	Currency string
	Month    int
	Year     int
}

// SetBudget creates or replaces the budget for (user, category, month, year).
// Only outcome categories can carry a budget.
func (b *BudgetTracker) SetBudget(ctx context.Context, p BudgetParams) (core.Budget, error) {
	code, err := parseCurrency(p.Currency)
	if err != nil {
		return core.Budget{}, err
	}
	cat, err := b.ledger.store.GetCategoryByName(ctx, p.Category)
	if err != nil {
		return core.Budget{}, err
	}
	if cat.Kind != core.Outcome {
		return core.Budget{}, fmt.Errorf("%w: %s is not a spending category", core.ErrInvalidInput, cat.Name)
	}

	budget := core.Budget{
		UserID:     p.UserID,
		CategoryID: cat.ID,
		Amount:     p.Amount,
		Currency:   code,
		Month:      p.Month,
		Year:       p.Year,
	}
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := b.ledger.EnsureUser(ctx, p.UserID); err != nil {
		return core.Budget{}, err
	}
	return b.ledger.store.UpsertBudget(ctx, budget)
}

func (b *BudgetTracker) ListBudgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	return b.ledger.store.ListBudgets(ctx, userID, month, year)
}

// WeeklyReport measures spending in now's month against each budget of that
// month. Spending is converted into the budget currency; a zero budget
// reports 0%.
func (b *BudgetTracker) WeeklyReport(ctx context.Context, userID int64, now time.Time) (core.BudgetReport, error) {
	local := now.In(b.ledger.location)
	report := core.BudgetReport{
		UserID: userID,
		Year:   local.Year(),
		Month:  int(local.Month()),
	}

	budgets, err := b.ledger.store.ListBudgets(ctx, userID, report.Month, report.Year)
	if err != nil {
		return core.BudgetReport{}, err
	}
	if len(budgets) == 0 {
		return report, nil
	}

	cats, err := b.ledger.store.ListCategories(ctx)
	if err != nil {
		return core.BudgetReport{}, err
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	from, to := monthBounds(local)
	spending, err := b.ledger.store.OutcomeByCategory(ctx, userID, from, to)
	if err != nil {
		return core.BudgetReport{}, err
	}

	for _, budget := range budgets {
		var spent core.Money
		for _, s := range spending {
			if s.CategoryID == nil || *s.CategoryID != budget.CategoryID {
				continue
			}
			spent = spent.Add(b.ledger.convert(ctx, s.Amount.Abs(), s.Currency, budget.Currency))
		}

		report.Lines = append(report.Lines, core.BudgetLine{
			CategoryID: budget.CategoryID,
			Category:   names[budget.CategoryID],
			Currency:   budget.Currency,
			Budgeted:   budget.Amount,
			Spent:      spent,
			Remaining:  budget.Amount.Sub(spent),
			Percentage: percentage(spent, budget.Amount),
		})
	}

	return report, nil
}

// percentage is spent/budgeted*100 rounded to one place; 0 when nothing was
// budgeted.
func percentage(spent, budgeted core.Money) float64 {
	if budgeted.IsZero() {
		return 0
	}
	pct := spent.Decimal().Div(budgeted.Decimal()).Mul(decimal.NewFromInt(100)).Round(1)
	return pct.InexactFloat64()
}

// RunWeeklyReports builds and publishes a report for every user with a
// budget in now's month. A failing user is logged and skipped.
func (b *BudgetTracker) RunWeeklyReports(ctx context.Context, now time.Time) (int, error) {
	logger := applog.FromContext(ctx, applog.ComponentBudget)
	local := now.In(b.ledger.location)

	users, err := b.ledger.store.ListBudgetUsers(ctx, int(local.Month()), local.Year())
	if err != nil {
		return 0, fmt.Errorf("list budget users: %w", err)
	}

	sent := 0
	for _, userID := range users {
		report, err := b.WeeklyReport(ctx, userID, now)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to build weekly budget report",
				applog.FieldUserID, userID,
				applog.FieldError, err)
			continue
		}
		publish(ctx, b.ledger.events, amqp.EventBudgetWeeklyReport, userID, budgetReportEvent(report))
		sent++
	}

	logger.InfoContext(ctx, "Weekly budget reports complete",
		"users", len(users),
		"reports", sent,
		applog.FieldYear, local.Year(),
		applog.FieldMonth, int(local.Month()))
	return sent, nil
}
