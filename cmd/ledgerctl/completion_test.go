package main

import (
	"flag"
	"slices"
	"testing"

	"github.com/google/subcommands"
)

func TestCompletion(t *testing.T) {
	global := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	global.Int64("user", 1, "")
	cmds := []subcommands.Command{&recordCmd{}, &holdResolveCmd{}, &budgetSetCmd{}, &exportCmd{}}

	root := completion(global, cmds, []string{"USD", "EUR"})

	if _, ok := root.Flags["user"]; !ok {
		t.Error("global -user flag missing")
	}
	for _, name := range []string{"record", "hold-resolve", "budget-set", "export", "help"} {
		if _, ok := root.Sub[name]; !ok {
			t.Errorf("subcommand %q missing", name)
		}
	}

	tests := []struct {
		name string
		cmd  string
		flag string
		want []string
	}{
		{"currency values", "record", "c", []string{"EUR", "USD"}},
		{"category values", "record", "cat", []string{"Food", "Other Income"}},
		{"resolve kinds", "hold-resolve", "as", []string{"income", "outcome"}},
		{"bool flag takes no value", "export", "dry-run", nil},
		{"bool flag on record", "record", "income", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := root.Sub[tt.cmd].Flags[tt.flag]
			if !ok {
				t.Fatalf("-%s missing on %s", tt.flag, tt.cmd)
			}
			got := p.Predict("")
			if tt.want == nil && len(got) != 0 {
				t.Errorf("Predict = %v, want none", got)
			}
			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("Predict = %v, missing %q", got, w)
				}
			}
		})
	}

	if got := root.Sub["help"].Args.Predict(""); !slices.Contains(got, "hold-resolve") {
		t.Errorf("help args = %v, missing hold-resolve", got)
	}
	if got := root.Sub["budget-set"].Args.Predict(""); !slices.Contains(got, "Housing") {
		t.Errorf("budget-set args = %v, missing Housing", got)
	}
}
