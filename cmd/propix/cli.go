package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/propix/propix"
	"github.com/propix/propix/fs"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	DataDir    string
	Store      *fs.Store
	Stats      propix.StatsService
	NewFetcher func(plainHTTP bool) (propix.PageFetcher, error)
	Downloader propix.ImageDownloader
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DataDir string `help:"Data directory for images, manifest, and state" env:"PROPIX_DATA"`

	Run       RunCmd       `cmd:"" help:"Extract photos for all properties in a CSV file"`
	Fetch     FetchCmd     `cmd:"" help:"Extract photos for a single property"`
	Reconcile ReconcileCmd `cmd:"" help:"Verify manifest entries against files on disk"`
	Stats     StatsCmd     `cmd:"" help:"Show per-source extraction statistics"`
	Sources   SourcesCmd   `cmd:"" help:"List registered photo sources"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	File        string   `arg:"" help:"CSV file of target properties"`
	Force       bool     `short:"f" help:"Re-extract properties already completed"`
	Sources     []string `short:"s" help:"Restrict extraction to these sources (repeatable)"`
	MinImages   int      `default:"10" help:"Stop trying sources once a property has this many images"`
	Concurrency int      `short:"c" default:"4" help:"Concurrent property limit"`
	PlainHTTP   bool     `help:"Fetch pages over plain HTTP instead of a headless browser"`
	GenericURL  string   `name:"generic-url" help:"Listing URL template enabling the generic source ({slug} expands to the address)"`
}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	Street string `arg:"" help:"Street address"`
	City   string `arg:"" optional:"" help:"City"`
	State  string `arg:"" optional:"" help:"State"`
	Zip    string `arg:"" optional:"" help:"ZIP code"`

	Key        string   `help:"Override the derived property key"`
	Force      bool     `short:"f" help:"Re-extract even if already completed"`
	Sources    []string `short:"s" help:"Restrict extraction to these sources (repeatable)"`
	MinImages  int      `default:"10" help:"Stop trying sources once the property has this many images"`
	PlainHTTP  bool     `help:"Fetch pages over plain HTTP instead of a headless browser"`
	GenericURL string   `name:"generic-url" help:"Listing URL template enabling the generic source ({slug} expands to the address)"`
}

// ReconcileCmd is the "reconcile" subcommand.
type ReconcileCmd struct{}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct{}
