package main

import (
	"fmt"
	"text/tabwriter"
)

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tPRIORITY\tDESCRIPTION")
	for _, src := range sourceCatalog {
		fmt.Fprintf(w, "%s\t%d\t%s\n", src.name, src.priority, src.desc)
	}
	return w.Flush()
}
