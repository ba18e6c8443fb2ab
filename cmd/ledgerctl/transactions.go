package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"finledger/internal/cli"
	"finledger/internal/core"
	"finledger/internal/services"
)

type recordCmd struct {
	wallet   int64
	currency string
	category string
	income   bool
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "record an income or outcome" }
func (*recordCmd) Usage() string {
	return `ledgerctl [-user id] record [-income] [-w wallet] [-c currency] [-cat category] <amount> [description...]

  Records an outcome (or an income with -income). Without -w the default
  wallet is used. The amount is converted into the wallet currency.
`
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.income, "income", false, "record an income instead of an outcome")
	f.Int64Var(&c.wallet, "w", 0, "wallet id (default wallet when omitted)")
	f.StringVar(&c.currency, "c", "", "currency of the amount (wallet currency when omitted)")
	f.StringVar(&c.category, "cat", "", "category name (detected from the description when omitted)")
}

func (c *recordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		return usageError("record needs an amount")
	}
	amount, err := core.ParseAmount(f.Arg(0))
	if err != nil {
		return usageError("invalid amount %q", f.Arg(0))
	}
	description := strings.Join(f.Args()[1:], " ")

	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		w, err := pickWallet(ctx, e, c.wallet)
		if err != nil {
			return err
		}
		p := services.RecordParams{
			UserID:      *userID,
			WalletID:    &w.ID,
			Type:        core.Outcome,
			Amount:      amount,
			Currency:    c.currency,
			Description: description,
		}
		if c.income {
			p.Type = core.Income
		}
		if p.Currency == "" {
			p.Currency = w.Currency
		}
		if c.category != "" {
			cat, err := e.Store.GetCategoryByName(ctx, c.category)
			if err != nil {
				return err
			}
			p.CategoryID = &cat.ID
		}

		tx, err := e.Ledger.RecordTransaction(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("recorded %d: %s %s\n", tx.ID, tx.Amount.Format(tx.Currency), tx.Description)
		return nil
	})
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction and reverse its effect" }
func (*deleteCmd) Usage() string {
	return `ledgerctl [-user id] delete <transaction-id>
`
}
func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := idArg(f)
	if err != nil {
		return usageError("%v", err)
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		if err := e.Ledger.DeleteTransaction(ctx, *userID, id); err != nil {
			return err
		}
		fmt.Printf("deleted transaction %d\n", id)
		return nil
	})
}

type transferCmd struct {
	from, to int64
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move money between two wallets" }
func (*transferCmd) Usage() string {
	return `ledgerctl [-user id] transfer -from <id> -to <id> <amount> [description...]

  The amount is in the source wallet currency and converted for the target.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.from, "from", 0, "source wallet id")
	f.Int64Var(&c.to, "to", 0, "destination wallet id")
}

func (c *transferCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.from == 0 || c.to == 0 || f.NArg() < 1 {
		return usageError("transfer needs -from, -to and an amount")
	}
	amount, err := core.ParseAmount(f.Arg(0))
	if err != nil {
		return usageError("invalid amount %q", f.Arg(0))
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		debit, credit, err := e.Ledger.Transfer(ctx, *userID, c.from, c.to, amount, strings.Join(f.Args()[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("transferred %s -> %s\n", debit.Amount.Abs().Format(debit.Currency), credit.Amount.Format(credit.Currency))
		return nil
	})
}

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recent transactions" }
func (*historyCmd) Usage() string {
	return `ledgerctl [-user id] history [-n limit]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 10, "number of transactions (max 500)")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		txs, err := e.Ledger.GetTransactionHistory(ctx, *userID, c.limit)
		if err != nil {
			return err
		}
		loc := e.Location
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tWALLET\tDESCRIPTION\t")
		for _, t := range txs {
			wallet := "-"
			if t.WalletID != nil {
				wallet = fmt.Sprint(*t.WalletID)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
				t.ID, t.CreatedAt.In(loc).Format("2006-01-02 15:04"), t.Type, t.Amount.Format(t.Currency), wallet, t.Description)
		}
		return tw.Flush()
	})
}

type balanceCmd struct{}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show the balance snapshot" }
func (*balanceCmd) Usage() string {
	return `ledgerctl [-user id] balance

  Wallet balances, totals in the display currency and this month's
  spending by category.
`
}
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (*balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		snap, err := e.Ledger.GetBalanceSnapshot(ctx, *userID)
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	})
}

func printSnapshot(s core.BalanceSnapshot) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, w := range s.Wallets {
		mark := ""
		if w.IsDefault {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t\n", w.Name, mark, w.Balance.Format(w.Currency))
	}
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintf(tw, "Income\t%s\t\n", s.TotalIncome.Format(s.Currency))
	fmt.Fprintf(tw, "Outcome\t%s\t\n", s.TotalOutcome.Format(s.Currency))
	fmt.Fprintf(tw, "On hold\t%s\t\n", s.TotalHolds.Format(s.Currency))
	if len(s.ByCategory) > 0 {
		fmt.Fprintf(tw, "\t\t\nSpending %04d-%02d\t\t\n", s.Year, s.Month)
		for _, c := range s.ByCategory {
			fmt.Fprintf(tw, "  %s\t%s\t\n", c.Name, c.Amount.Format(s.Currency))
		}
	}
	tw.Flush()
}

// pickWallet returns wallet id, or the default wallet when id is 0.
func pickWallet(ctx context.Context, e *cli.Engine, id int64) (core.Wallet, error) {
	if id == 0 {
		return e.Ledger.DefaultWallet(ctx, *userID)
	}
	return e.Ledger.GetWallet(ctx, *userID, id)
}

func normalize(code string) string {
	return core.NormalizeCurrency(code)
}
