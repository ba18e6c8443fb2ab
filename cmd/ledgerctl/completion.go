package main

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"finledger/internal/core"
)

var categoryNames = predict.Set{
	core.CategoryFood, core.CategoryTransport, core.CategoryHousing, core.CategoryUtilities,
	core.CategoryHealth, core.CategoryEntertainment, core.CategoryShopping, core.CategoryEducation,
	core.CategoryGifts, core.CategoryOther,
	core.CategorySalary, core.CategoryFreelance, core.CategoryInvestments, core.CategoryRefunds,
	core.CategoryOtherIncome,
}

// completion describes ledgerctl to the shell. Install it with
// COMP_INSTALL=1 ledgerctl.
func completion(global *flag.FlagSet, cmds []subcommands.Command, currencies []string) *complete.Command {
	values := map[string]complete.Predictor{
		"c":   predict.Set(currencies),
		"cat": categoryNames,
		"as":  predict.Set{"income", "outcome"},
	}

	root := &complete.Command{
		Sub:   make(map[string]*complete.Command, len(cmds)+3),
		Flags: flagPredictors(global, values),
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	for _, c := range cmds {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		root.Sub[c.Name()] = &complete.Command{Flags: flagPredictors(fs, values)}
	}
	root.Sub["budget-set"].Args = categoryNames
	// help takes a command name.
	names := make(predict.Set, 0, len(root.Sub))
	for name := range root.Sub {
		names = append(names, name)
	}
	root.Sub["help"].Args = names
	return root
}

func flagPredictors(fs *flag.FlagSet, values map[string]complete.Predictor) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		if p, ok := values[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}
