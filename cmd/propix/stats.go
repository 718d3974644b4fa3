package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/propix/propix"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	stats, err := deps.Stats.SourceStats(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propix.ErrorMessage(err))
		return err
	}

	if len(stats) == 0 {
		fmt.Fprintln(deps.Stdout, "No extraction attempts recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tATTEMPTS\tSUCCESS RATE\tCHALLENGES\tIMAGES\tDUPLICATES")
	for _, st := range stats {
		fmt.Fprintf(w, "%s\t%d\t%.0f%%\t%d\t%d\t%d\n",
			st.Source, st.Attempts, st.SuccessRate()*100, st.Challenges, st.Images, st.Duplicates)
	}
	return w.Flush()
}
