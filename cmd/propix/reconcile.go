package main

import (
	"fmt"

	"github.com/propix/propix"
)

// Run executes the reconcile command.
func (c *ReconcileCmd) Run(deps *Dependencies) error {
	report, err := deps.Store.Reconcile()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propix.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%d manifest entries checked\n", report.Checked)
	if report.Clean() {
		fmt.Fprintln(deps.Stdout, "Store is clean: files and manifest entries match 1:1.")
		return nil
	}

	if len(report.Dangling) > 0 {
		fmt.Fprintf(deps.Stdout, "%d manifest entries missing their file:\n", len(report.Dangling))
		for _, id := range report.Dangling {
			fmt.Fprintf(deps.Stdout, "  %s\n", id)
		}
	}
	if len(report.Orphans) > 0 {
		fmt.Fprintf(deps.Stdout, "%d files on disk with no manifest entry:\n", len(report.Orphans))
		for _, path := range report.Orphans {
			fmt.Fprintf(deps.Stdout, "  %s\n", path)
		}
	}

	// Findings are informational. The operator decides what to remove.
	return nil
}
