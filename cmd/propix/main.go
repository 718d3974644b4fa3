package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/propix/propix"
	"github.com/propix/propix/fs"
	propixhttp "github.com/propix/propix/http"
	"github.com/propix/propix/rod"
	"github.com/propix/propix/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Data directory holding processed images, manifest, run state, and the
	// stats ledger. Set before calling Run().
	DataDir string

	// SQLite database backing the statistics ledger.
	DB *sqlite.DB

	// Services exposed for end-to-end testing.
	Store *fs.Store
	Stats propix.StatsService

	// NewFetcher builds the page fetcher for extraction commands. Tests
	// substitute this to avoid launching a browser.
	NewFetcher func(plainHTTP bool) (propix.PageFetcher, error)

	// Downloader overrides the HTTP image downloader when non-nil.
	Downloader propix.ImageDownloader
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DataDir:    defaultDataDir(),
		NewFetcher: defaultNewFetcher,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("propix"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'propix --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if cli.DataDir != "" {
		m.DataDir = cli.DataDir
	}
	if err := os.MkdirAll(m.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %q: %w", m.DataDir, err)
	}

	// Open the image store, recovering from manifest corruption if needed.
	m.Store = fs.NewStore(m.DataDir)
	if err := m.Store.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set PROPIX_DATA to use a different data directory\n")
		return fmt.Errorf("failed to open image store at %q: %w", m.DataDir, err)
	}

	// Open the stats ledger.
	m.DB = sqlite.NewDB(filepath.Join(m.DataDir, "stats.db"))
	if err := m.DB.Open(); err != nil {
		return fmt.Errorf("failed to open stats database: %w", err)
	}
	defer m.Close()
	m.Stats = sqlite.NewStatsService(m.DB)

	deps.DataDir = m.DataDir
	deps.Store = m.Store
	deps.Stats = m.Stats
	deps.NewFetcher = m.NewFetcher
	deps.Downloader = m.Downloader
	if deps.Downloader == nil {
		deps.Downloader = propixhttp.NewDownloader()
	}

	return kongCtx.Run(deps)
}

// defaultNewFetcher starts a stealth browser, or a plain HTTP fetcher when
// the portal set doesn't need JavaScript rendering.
func defaultNewFetcher(plainHTTP bool) (propix.PageFetcher, error) {
	if plainHTTP {
		return propixhttp.NewFetcher(), nil
	}
	fetcher, err := rod.NewFetcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
	}
	return fetcher, nil
}

func defaultDataDir() string {
	if path := os.Getenv("PROPIX_DATA"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "propix-data"
	}
	return filepath.Join(home, ".propix")
}
