// Command ledgerctl operates the ledger engine from a terminal: wallets,
// transactions, holds, recurring rules, budgets and the scheduled jobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"finledger/internal/cli"
	"finledger/internal/config"
	applog "finledger/internal/log"
)

var userID = flag.Int64("user", 1, "ledger user id the command acts for")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	groups := []struct {
		name string
		cmds []subcommands.Command
	}{
		{"wallets", []subcommands.Command{&walletsCmd{}, &walletCreateCmd{}, &walletDefaultCmd{}, &currencyCmd{}}},
		{"transactions", []subcommands.Command{&recordCmd{}, &deleteCmd{}, &transferCmd{}, &historyCmd{}, &balanceCmd{}}},
		{"holds", []subcommands.Command{&holdsCmd{}, &holdCreateCmd{}, &holdResolveCmd{}, &holdRemoveCmd{}, &holdEditCmd{}}},
		{"recurring", []subcommands.Command{&rulesCmd{}, &ruleSetCmd{}, &ruleEditCmd{}, &ruleRemoveCmd{}}},
		{"budgets", []subcommands.Command{&budgetSetCmd{}, &reportCmd{}}},
		{"operations", []subcommands.Command{&tickCmd{}, &ratesCmd{}, &reconcileCmd{}, &exportCmd{}}},
	}
	var all []subcommands.Command
	for _, g := range groups {
		for _, c := range g.cmds {
			commander.Register(c, g.name)
			all = append(all, c)
		}
	}

	cli.LoadEnvFile()
	// Exits here when the shell is asking for completions.
	completion(flag.CommandLine, all, config.Load().SupportedCurrencies).Complete(path.Base(os.Args[0]))

	flag.Parse()

	// Command output goes to stdout; logs stay on stderr at warn unless
	// LOG_LEVEL says otherwise.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	applog.SetDefault(applog.New(applog.Config{
		Component: applog.ComponentCLI,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: applog.ParseLevel(level)}),
	}))

	os.Exit(int(commander.Execute(context.Background())))
}

// run opens the engine, runs fn and maps its error to an exit status.
func run(ctx context.Context, fn func(ctx context.Context, e *cli.Engine) error) subcommands.ExitStatus {
	logger := slog.Default()
	cfg := cli.LoadAndValidateConfig(logger)
	engine, err := cli.NewEngine(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer engine.Close()

	if err := fn(ctx, engine); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}
