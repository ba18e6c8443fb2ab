package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"finledger/internal/cli"
	"finledger/internal/sheets"
	gsheet "finledger/internal/sheets/google"
	"finledger/internal/sheets/memory"
	"finledger/internal/worker"
)

type tickCmd struct {
	date string
}

func (*tickCmd) Name() string     { return "tick" }
func (*tickCmd) Synopsis() string { return "apply recurring rules due today" }
func (*tickCmd) Usage() string {
	return `ledgerctl tick [-date YYYY-MM-DD]

  Runs the daily recurring job once for all users. Rules already applied
  on the day are left alone.
`
}

func (c *tickCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "process as of this day in the ledger timezone")
}

func (c *tickCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		now := time.Now()
		if c.date != "" {
			d, err := time.ParseInLocation("2006-01-02", c.date, e.Location)
			if err != nil {
				return fmt.Errorf("invalid -date: %w", err)
			}
			now = d.Add(12 * time.Hour)
		}
		res, err := e.Rules.ProcessDueRules(ctx, now)
		if err != nil {
			return err
		}
		fmt.Printf("checked %d, applied %d, skipped %d, failed %d\n", res.Checked, res.Applied, res.Skipped, res.Failed)
		return nil
	})
}

type ratesCmd struct{}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "show the current exchange rate table" }
func (*ratesCmd) Usage() string {
	return `ledgerctl rates
`
}
func (*ratesCmd) SetFlags(*flag.FlagSet) {}

func (*ratesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		table, err := e.Converter.Rates(ctx)
		if err != nil {
			return err
		}
		codes := make([]string, 0, len(table.Rates))
		for code := range table.Rates {
			if e.Config.Supports(code) {
				codes = append(codes, code)
			}
		}
		sort.Strings(codes)

		fmt.Printf("1 %s, fetched %s\n", table.Base, table.FetchedAt.In(e.Location).Format(time.RFC3339))
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, code := range codes {
			fmt.Fprintf(tw, "%s\t%s\t\n", code, table.Rates[code].StringFixed(4))
		}
		return tw.Flush()
	})
}

type reconcileCmd struct{}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "compare cached balances with the transaction log" }
func (*reconcileCmd) Usage() string {
	return `ledgerctl [-user id] reconcile

  Exits with failure when any wallet balance differs from its transactions
  minus its active holds.
`
}
func (*reconcileCmd) SetFlags(*flag.FlagSet) {}

var errDrift = errors.New("wallet balances drifted")

func (*reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		drift, err := e.Ledger.Reconcile(ctx, *userID)
		if err != nil {
			return err
		}
		bad := 0
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WALLET\tCACHED\tDERIVED\tSTATUS\t")
		for _, d := range drift {
			status := "ok"
			if !d.Consistent() {
				status = "DRIFT"
				bad++
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", d.Name, d.Cached.Format(d.Currency), d.Derived().Format(d.Currency), status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if bad > 0 {
			return fmt.Errorf("%w: %d wallet(s)", errDrift, bad)
		}
		return nil
	})
}

type exportCmd struct {
	dryRun bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "append balance snapshots to the spreadsheet" }
func (*exportCmd) Usage() string {
	return `ledgerctl export [-dry-run]

  Exports one snapshot per user to GOOGLE_SPREADSHEET_ID. With -dry-run the
  rows are printed instead.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "print rows instead of writing them")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, e *cli.Engine) error {
		var exporter sheets.SnapshotExporter
		mem := memory.New()
		if c.dryRun {
			exporter = mem
		} else {
			client, err := gsheet.NewFromEnv(ctx)
			if err != nil {
				return err
			}
			exporter = client
		}

		n, err := worker.ExportSnapshots(ctx, e.Ledger, exporter)
		if err != nil {
			return err
		}
		if c.dryRun {
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, row := range mem.Rows() {
				for _, cell := range row {
					fmt.Fprintf(tw, "%v\t", cell)
				}
				fmt.Fprintln(tw)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		fmt.Printf("exported %d snapshots\n", n)
		return nil
	})
}
