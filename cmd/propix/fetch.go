package main

import (
	"fmt"

	"github.com/propix/propix"
)

// Run executes the fetch command.
func (c *FetchCmd) Run(deps *Dependencies) error {
	property := &propix.Property{
		Key:    c.Key,
		Street: c.Street,
		City:   c.City,
		State:  c.State,
		Zip:    c.Zip,
	}
	if property.Key == "" {
		property.Key = propix.PropertyKey(property)
	}
	if err := property.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propix.ErrorMessage(err))
		return err
	}

	return runExtraction(deps, []*propix.Property{property}, extractionConfig{
		force:       c.Force,
		sources:     c.Sources,
		minImages:   c.MinImages,
		concurrency: 1,
		plainHTTP:   c.PlainHTTP,
		genericURL:  c.GenericURL,
	})
}
