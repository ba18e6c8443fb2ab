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

type holdsCmd struct{}

func (*holdsCmd) Name() string     { return "holds" }
func (*holdsCmd) Synopsis() string { return "list active holds" }
func (*holdsCmd) Usage() string {
	return `ledgerctl [-user id] holds
`
}
func (*holdsCmd) SetFlags(*flag.FlagSet) {}

func (*holdsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		holds, err := e.Holds.ListHolds(ctx, *userID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tAMOUNT\tSOURCE\tDESCRIPTION\tTAGS\t")
		for _, h := range holds {
			source := "-"
			if h.SourceWalletID != nil {
				source = fmt.Sprint(*h.SourceWalletID)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
				h.ID, h.Amount.Format(h.Currency), source, h.Description, strings.Join(h.Tags, ","))
		}
		return tw.Flush()
	})
}

type holdCreateCmd struct {
	wallet   int64
	currency string
	tags     string
}

func (*holdCreateCmd) Name() string     { return "hold-create" }
func (*holdCreateCmd) Synopsis() string { return "earmark funds for an expected payment" }
func (*holdCreateCmd) Usage() string {
	return `ledgerctl [-user id] hold-create [-w wallet] -c <currency> [-tags a,b] <amount> <description...>

  With -w the amount is taken from the wallet until the hold is settled.
`
}

func (c *holdCreateCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.wallet, "w", 0, "source wallet id (no wallet when omitted)")
	f.StringVar(&c.currency, "c", "", "currency of the amount")
	f.StringVar(&c.tags, "tags", "", "comma separated tags")
}

func (c *holdCreateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 || c.currency == "" {
		return usageError("hold-create needs -c, an amount and a description")
	}
	amount, err := core.ParseAmount(f.Arg(0))
	if err != nil {
		return usageError("invalid amount %q", f.Arg(0))
	}
	p := services.CreateHoldParams{
		UserID:      *userID,
		Amount:      amount,
		Description: strings.Join(f.Args()[1:], " "),
		Currency:    c.currency,
	}
	if c.wallet != 0 {
		p.SourceWalletID = &c.wallet
	}
	if c.tags != "" {
		p.Tags = strings.Split(c.tags, ",")
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		h, err := e.Holds.CreateHold(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("hold %d: %s %s\n", h.ID, h.Amount.Format(h.Currency), h.Description)
		return nil
	})
}

type holdResolveCmd struct {
	as string
}

func (*holdResolveCmd) Name() string     { return "hold-resolve" }
func (*holdResolveCmd) Synopsis() string { return "settle a hold as income or outcome" }
func (*holdResolveCmd) Usage() string {
	return `ledgerctl [-user id] hold-resolve -as income|outcome <hold-id>
`
}

func (c *holdResolveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.as, "as", "outcome", "income or outcome")
}

func (c *holdResolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := idArg(f)
	if err != nil {
		return usageError("%v", err)
	}
	kind := core.TxType(c.as)
	if kind != core.Income && kind != core.Outcome {
		return usageError("-as must be income or outcome")
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		resolve := e.Holds.ResolveToOutcome
		if kind == core.Income {
			resolve = e.Holds.ResolveToIncome
		}
		tx, err := resolve(ctx, *userID, id)
		if err != nil {
			return err
		}
		fmt.Printf("hold %d resolved: transaction %d %s\n", id, tx.ID, tx.Amount.Format(tx.Currency))
		return nil
	})
}

type holdRemoveCmd struct{}

func (*holdRemoveCmd) Name() string     { return "hold-remove" }
func (*holdRemoveCmd) Synopsis() string { return "discard a hold and release its funds" }
func (*holdRemoveCmd) Usage() string {
	return `ledgerctl [-user id] hold-remove <hold-id>
`
}
func (*holdRemoveCmd) SetFlags(*flag.FlagSet) {}

func (*holdRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := idArg(f)
	if err != nil {
		return usageError("%v", err)
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		if err := e.Holds.RemoveHold(ctx, *userID, id); err != nil {
			return err
		}
		fmt.Printf("hold %d removed\n", id)
		return nil
	})
}

type holdEditCmd struct {
	name string
	tags string
}

func (*holdEditCmd) Name() string     { return "hold-edit" }
func (*holdEditCmd) Synopsis() string { return "rename or retag an active hold" }
func (*holdEditCmd) Usage() string {
	return `ledgerctl [-user id] hold-edit [-name text] [-tags a,b] <hold-id>
`
}

func (c *holdEditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "new description")
	f.StringVar(&c.tags, "tags", "", "replacement tags, comma separated (\"-\" clears)")
}

func (c *holdEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := idArg(f)
	if err != nil {
		return usageError("%v", err)
	}
	if c.name == "" && c.tags == "" {
		return usageError("hold-edit needs -name or -tags")
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		var h core.Hold
		if c.name != "" {
			if h, err = e.Holds.RenameHold(ctx, *userID, id, c.name); err != nil {
				return err
			}
		}
		if c.tags != "" {
			var tags []string
			if c.tags != "-" {
				tags = strings.Split(c.tags, ",")
			}
			if h, err = e.Holds.TagHold(ctx, *userID, id, tags); err != nil {
				return err
			}
		}
		fmt.Printf("hold %d: %s [%s]\n", h.ID, h.Description, strings.Join(h.Tags, ","))
		return nil
	})
}
