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

type rulesCmd struct{}

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "list recurring rules" }
func (*rulesCmd) Usage() string {
	return `ledgerctl [-user id] rules
`
}
func (*rulesCmd) SetFlags(*flag.FlagSet) {}

func (*rulesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		rules, err := e.Rules.ListRecurringRules(ctx, *userID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDAY\tTYPE\tAMOUNT\tACTIVE\tLAST APPLIED\tDESCRIPTION\t")
		for _, r := range rules {
			last := "-"
			if !r.LastAppliedOn.IsZero() {
				last = r.LastAppliedOn.String()
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%v\t%s\t%s\t\n",
				r.ID, r.DayOfMonth, r.Type, r.Amount.Format(r.Currency), r.Active, last, r.Description)
		}
		return tw.Flush()
	})
}

type ruleSetCmd struct {
	currency string
	day      int
	income   bool
}

func (*ruleSetCmd) Name() string     { return "rule-set" }
func (*ruleSetCmd) Synopsis() string { return "create a monthly recurring rule" }
func (*ruleSetCmd) Usage() string {
	return `ledgerctl [-user id] rule-set [-income] -c <currency> -day <1-31> <amount> <description...>

  The rule posts to the default wallet on the given day every month. Days
  past the end of a month fire on its last day.
`
}

func (c *ruleSetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.income, "income", false, "post an income instead of an outcome")
	f.StringVar(&c.currency, "c", "", "currency of the amount")
	f.IntVar(&c.day, "day", 0, "day of month (1-31)")
}

func (c *ruleSetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 || c.currency == "" || c.day == 0 {
		return usageError("rule-set needs -c, -day, an amount and a description")
	}
	amount, err := core.ParseAmount(f.Arg(0))
	if err != nil {
		return usageError("invalid amount %q", f.Arg(0))
	}
	p := services.RuleParams{
		UserID:      *userID,
		Type:        core.Outcome,
		Amount:      amount,
		Description: strings.Join(f.Args()[1:], " "),
		Currency:    c.currency,
		DayOfMonth:  c.day,
	}
	if c.income {
		p.Type = core.Income
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		r, err := e.Rules.SetRecurringRule(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("rule %d: %s %s on day %d\n", r.ID, r.Type, r.Amount.Format(r.Currency), r.DayOfMonth)
		return nil
	})
}

type ruleEditCmd struct {
	amount      string
	description string
	day         int
	pause       bool
	resume      bool
}

func (*ruleEditCmd) Name() string     { return "rule-edit" }
func (*ruleEditCmd) Synopsis() string { return "change, pause or resume a recurring rule" }
func (*ruleEditCmd) Usage() string {
	return `ledgerctl [-user id] rule-edit [-amount x] [-day n] [-desc text] [-pause|-resume] <rule-id>
`
}

func (c *ruleEditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "new amount")
	f.IntVar(&c.day, "day", 0, "new day of month")
	f.StringVar(&c.description, "desc", "", "new description")
	f.BoolVar(&c.pause, "pause", false, "stop applying the rule")
	f.BoolVar(&c.resume, "resume", false, "apply the rule again")
}

func (c *ruleEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := idArg(f)
	if err != nil {
		return usageError("%v", err)
	}
	if c.pause && c.resume {
		return usageError("-pause and -resume are exclusive")
	}

	var edit services.RuleEdit
	changed := false
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "amount", "day", "desc":
			changed = true
		}
	})
	if c.amount != "" {
		amount, err := core.ParseAmount(c.amount)
		if err != nil {
			return usageError("invalid amount %q", c.amount)
		}
		edit.Amount = &amount
	}
	if c.day != 0 {
		edit.DayOfMonth = &c.day
	}
	if c.description != "" {
		edit.Description = &c.description
	}
	if !changed && !c.pause && !c.resume {
		return usageError("rule-edit needs at least one change")
	}

	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		if changed {
			r, err := e.Rules.EditRecurringRule(ctx, *userID, id, edit)
			if err != nil {
				return err
			}
			fmt.Printf("rule %d: %s %s on day %d\n", r.ID, r.Type, r.Amount.Format(r.Currency), r.DayOfMonth)
		}
		if c.pause || c.resume {
			if err := e.Rules.SetRecurringRuleActive(ctx, *userID, id, c.resume); err != nil {
				return err
			}
			fmt.Printf("rule %d active=%v\n", id, c.resume)
		}
		return nil
	})
}

type ruleRemoveCmd struct{}

func (*ruleRemoveCmd) Name() string     { return "rule-remove" }
func (*ruleRemoveCmd) Synopsis() string { return "delete a recurring rule" }
func (*ruleRemoveCmd) Usage() string {
	return `ledgerctl [-user id] rule-remove <rule-id>

  Entries the rule already posted stay in the ledger.
`
}
func (*ruleRemoveCmd) SetFlags(*flag.FlagSet) {}

func (*ruleRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := idArg(f)
	if err != nil {
		return usageError("%v", err)
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		if err := e.Rules.RemoveRecurringRule(ctx, *userID, id); err != nil {
			return err
		}
		fmt.Printf("rule %d removed\n", id)
		return nil
	})
}
