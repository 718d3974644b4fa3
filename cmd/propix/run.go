package main

import (
	"fmt"

	"github.com/propix/propix"
	"github.com/propix/propix/csv"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	properties, err := csv.NewPropertyProvider(c.File).Properties(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propix.ErrorMessage(err))
		return err
	}
	if len(properties) == 0 {
		fmt.Fprintln(deps.Stdout, "No properties in file, nothing to do.")
		return nil
	}

	return runExtraction(deps, properties, extractionConfig{
		force:       c.Force,
		sources:     c.Sources,
		minImages:   c.MinImages,
		concurrency: c.Concurrency,
		plainHTTP:   c.PlainHTTP,
		genericURL:  c.GenericURL,
	})
}
