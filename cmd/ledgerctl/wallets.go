package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"

	"finledger/internal/cli"
)

type walletsCmd struct{}

func (*walletsCmd) Name() string     { return "wallets" }
func (*walletsCmd) Synopsis() string { return "list wallets and balances" }
func (*walletsCmd) Usage() string {
	return `ledgerctl [-user id] wallets

  Lists the user's wallets. The default wallet is marked with *.
`
}
func (*walletsCmd) SetFlags(*flag.FlagSet) {}

func (*walletsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		wallets, err := e.Ledger.ListWallets(ctx, *userID)
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Println("no wallets")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tBALANCE\t")
		for _, w := range wallets {
			mark := ""
			if w.IsDefault {
				mark = "*"
			}
			fmt.Fprintf(tw, "%d%s\t%s\t%s\t\n", w.ID, mark, w.Name, w.Balance.Format(w.Currency))
		}
		return tw.Flush()
	})
}

type walletCreateCmd struct {
	currency string
}

func (*walletCreateCmd) Name() string     { return "wallet-create" }
func (*walletCreateCmd) Synopsis() string { return "create a wallet" }
func (*walletCreateCmd) Usage() string {
	return `ledgerctl [-user id] wallet-create -c <currency> <name>

  Creates a wallet. The user's first wallet becomes the default.
`
}

func (c *walletCreateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "ISO currency code of the wallet")
}

func (c *walletCreateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.currency == "" {
		return usageError("wallet-create needs -c and a name")
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		w, err := e.Ledger.CreateWallet(ctx, *userID, f.Arg(0), c.currency)
		if err != nil {
			return err
		}
		fmt.Printf("created wallet %d %q (%s), default=%v\n", w.ID, w.Name, w.Currency, w.IsDefault)
		return nil
	})
}

type walletDefaultCmd struct{}

func (*walletDefaultCmd) Name() string     { return "wallet-default" }
func (*walletDefaultCmd) Synopsis() string { return "set the default wallet" }
func (*walletDefaultCmd) Usage() string {
	return `ledgerctl [-user id] wallet-default <wallet-id>

  Marks the wallet as the target of recurring rules and unsourced holds.
`
}
func (*walletDefaultCmd) SetFlags(*flag.FlagSet) {}

func (*walletDefaultCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := idArg(f)
	if err != nil {
		return usageError("%v", err)
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		if err := e.Ledger.SetDefaultWallet(ctx, *userID, id); err != nil {
			return err
		}
		fmt.Printf("wallet %d is now the default\n", id)
		return nil
	})
}

type currencyCmd struct{}

func (*currencyCmd) Name() string     { return "currency" }
func (*currencyCmd) Synopsis() string { return "set the display currency" }
func (*currencyCmd) Usage() string {
	return `ledgerctl [-user id] currency <code>

  Sets the currency balance snapshots are expressed in.
`
}
func (*currencyCmd) SetFlags(*flag.FlagSet) {}

func (*currencyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("currency needs a code")
	}
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		code := f.Arg(0)
		if !e.Config.Supports(normalize(code)) {
			return fmt.Errorf("currency %s is not in SUPPORTED_CURRENCIES", code)
		}
		if err := e.Ledger.SetDisplayCurrency(ctx, *userID, code); err != nil {
			return err
		}
		fmt.Printf("display currency set to %s\n", normalize(code))
		return nil
	})
}

// idArg parses the single positional id argument.
func idArg(f *flag.FlagSet) (int64, error) {
	if f.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one id argument")
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", f.Arg(0))
	}
	return id, nil
}
