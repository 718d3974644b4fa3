package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/propix/propix"
	"github.com/propix/propix/dedup"
	"github.com/propix/propix/extract"
	"github.com/propix/propix/fs"
	"github.com/propix/propix/goquery"
	"github.com/propix/propix/imghash"
	propixslog "github.com/propix/propix/slog"
)

// Per-source pacing: at most one page fetch every two seconds with up to a
// second of jitter, so request timing doesn't look mechanical.
const (
	sourceMinInterval = 2 * time.Second
	sourceJitter      = time.Second
)

// sourceCatalog lists the built-in sources with their priorities. The
// generic source needs a --generic-url template to activate.
var sourceCatalog = []struct {
	name     string
	priority int
	desc     string
}{
	{"zillow", 100, "Zillow address pages"},
	{"redfin", 90, "Redfin address search"},
	{"generic", 50, "any listing site, via --generic-url template"},
}

// extractionConfig carries the flags shared by the run and fetch commands.
type extractionConfig struct {
	force       bool
	sources     []string
	minImages   int
	concurrency int
	plainHTTP   bool
	genericURL  string
}

// runExtraction wires the full pipeline and processes the given properties.
// Per-property failures are reported on stdout, not returned: only
// configuration and environment problems produce an error.
func runExtraction(deps *Dependencies, properties []*propix.Property, cfg extractionConfig) error {
	fetcher, err := deps.NewFetcher(cfg.plainHTTP)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	registry := extract.NewRegistry()
	if err := registerSources(registry, deps, fetcher, cfg.genericURL); err != nil {
		return err
	}
	for _, name := range cfg.sources {
		if _, ok := registry.Get(name); !ok {
			return propix.Errorf(propix.ECONFIG, "unknown source %q (see 'propix sources')", name)
		}
	}

	state := fs.NewStateManager(filepath.Join(deps.DataDir, "state.json"))
	if err := state.Open(uuid.NewString()); err != nil {
		return err
	}

	dd, err := dedup.New(deps.Store.AllImages())
	if err != nil {
		return err
	}

	o := &extract.Orchestrator{
		Registry:     registry,
		Downloader:   propixslog.NewLoggingDownloader(deps.Downloader, deps.Logger),
		Hasher:       imghash.NewHasher(),
		Store:        deps.Store,
		Dedup:        dd,
		State:        state,
		Stats:        deps.Stats,
		Limiter:      extract.NewSourceLimiter(sourceMinInterval, sourceJitter),
		Logger:       deps.Logger,
		MinImages:    cfg.minImages,
		Concurrency:  cfg.concurrency,
		ForceRefresh: cfg.force,
		Sources:      cfg.sources,
	}

	res, err := o.Run(deps.Ctx, properties)
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "%d properties: %d completed, %d skipped, %d exhausted\n",
		res.Properties, res.Completed, res.Skipped, len(res.Exhausted))
	fmt.Fprintf(deps.Stdout, "%d new images, %d duplicates, %d invalid\n",
		res.NewImages, res.Duplicates, res.Invalid)

	for _, ex := range res.Exhausted {
		fmt.Fprintf(deps.Stdout, "  %s below threshold:\n", ex.Key)
		sources := make([]string, 0, len(ex.Reasons))
		for source := range ex.Reasons {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Fprintf(deps.Stdout, "    %s: %s\n", source, ex.Reasons[source])
		}
	}

	return nil
}

// registerSources populates the registry with the built-in extractors, each
// wrapped with discovery logging.
func registerSources(registry *extract.Registry, deps *Dependencies, fetcher propix.PageFetcher, genericURL string) error {
	for _, src := range sourceCatalog {
		var ex propix.SourceExtractor
		var err error
		switch src.name {
		case "zillow":
			ex, err = goquery.NewZillowExtractor(fetcher, "")
		case "redfin":
			ex, err = goquery.NewRedfinExtractor(fetcher, "")
		case "generic":
			if genericURL == "" {
				continue
			}
			ex, err = goquery.NewGenericExtractor(fetcher, genericURL)
		}
		if err != nil {
			return err
		}
		registry.Register(src.name, src.priority, propixslog.NewLoggingExtractor(ex, deps.Logger))
	}
	return nil
}
