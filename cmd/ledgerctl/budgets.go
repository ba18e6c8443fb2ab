package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"finledger/internal/cli"
	"finledger/internal/core"
	"finledger/internal/services"
)

type budgetSetCmd struct {
	currency string
	month    int
	year     int
}

func (*budgetSetCmd) Name() string     { return "budget-set" }
func (*budgetSetCmd) Synopsis() string { return "set a monthly budget for a category" }
func (*budgetSetCmd) Usage() string {
	return `ledgerctl [-user id] budget-set -c <currency> [-month m] [-year y] <category> <amount>

  Month and year default to the current month. Setting the same category
  and month again replaces the amount.
`
}

func (c *budgetSetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "currency of the budget")
	f.IntVar(&c.month, "month", 0, "month 1-12 (current month when omitted)")
	f.IntVar(&c.year, "year", 0, "year (current year when omitted)")
}

func (c *budgetSetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 || c.currency == "" {
		return usageError("budget-set needs -c, a category and an amount")
	}
	amount, err := core.ParseAmount(f.Arg(1))
	if err != nil {
		return usageError("invalid amount %q", f.Arg(1))
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		now := time.Now().In(e.Location)
		p := services.BudgetParams{
			UserID:   *userID,
			Category: f.Arg(0),
			Amount:   amount,
			Currency: c.currency,
			Month:    c.month,
			Year:     c.year,
		}
		if p.Month == 0 {
			p.Month = int(now.Month())
		}
		if p.Year == 0 {
			p.Year = now.Year()
		}
		b, err := e.Budgets.SetBudget(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("budget %d: %s %s for %04d-%02d\n", b.ID, f.Arg(0), b.Amount.Format(b.Currency), b.Year, b.Month)
		return nil
	})
}

type reportCmd struct {
	all bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "show spending against this month's budgets" }
func (*reportCmd) Usage() string {
	return `ledgerctl [-user id] report [-all]

  With -all the report is built and published for every user with a
  budget, as the weekly job does.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "publish reports for every user")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		now := time.Now()
		if c.all {
			sent, err := e.Budgets.RunWeeklyReports(ctx, now)
			if err != nil {
				return err
			}
			fmt.Printf("published %d reports\n", sent)
			return nil
		}

		report, err := e.Budgets.WeeklyReport(ctx, *userID, now)
		if err != nil {
			return err
		}
		if len(report.Lines) == 0 {
			fmt.Printf("no budgets for %04d-%02d\n", report.Year, report.Month)
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "CATEGORY\tBUDGET\tSPENT\tREMAINING\tUSED\t")
		for _, l := range report.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\t\n",
				l.Category, l.Budgeted.Format(l.Currency), l.Spent.Format(l.Currency), l.Remaining.Format(l.Currency), l.Percentage)
		}
		return tw.Flush()
	})
}
