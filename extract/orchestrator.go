// Package extract orchestrates photo acquisition per property: sources are
// tried in priority order behind a per-source rate limiter and circuit
// breaker, candidate URLs are downloaded with bounded retry, validated,
// deduplicated, and persisted with provenance. Progress is checkpointed
// after every source attempt so a crash resumes at the next untried source.
package extract

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/propix/propix"
	"github.com/propix/propix/imghash"
)

// Orchestrator defaults.
const (
	DefaultMinImages           = 10
	DefaultConcurrency         = 4
	DefaultDownloadConcurrency = 5
	DefaultAttemptTimeout      = 2 * time.Minute
)

// Orchestrator coordinates extraction across sources and properties.
type Orchestrator struct {
	Registry   propix.ExtractorRegistry
	Downloader propix.ImageDownloader
	Hasher     propix.Hasher
	Store      propix.ImageStore
	Dedup      propix.Deduplicator
	State      propix.StateService
	Stats      propix.StatsService // optional
	Limiter    *SourceLimiter      // optional
	Breaker    *CircuitBreaker     // created on first Run if nil
	Logger     *slog.Logger

	// MinImages is the per-property image count at which source iteration
	// stops. Defaults to DefaultMinImages.
	MinImages int

	// Concurrency bounds the property worker pool.
	Concurrency int

	// DownloadConcurrency bounds parallel downloads within one source attempt.
	DownloadConcurrency int

	// AttemptTimeout caps one whole source attempt, discovery included.
	AttemptTimeout time.Duration

	// RetryDelays is the download backoff schedule. Defaults to DefaultRetryDelays.
	RetryDelays []time.Duration

	// ForceRefresh re-extracts properties already marked completed.
	ForceRefresh bool

	// Sources restricts extraction to a subset of registered sources.
	// Empty means all.
	Sources []string

	// writeMu serializes the dedup-check-then-register critical section so
	// two workers cannot both decide the same photo is new.
	writeMu sync.Mutex
}

// Result is the end-of-run summary.
type Result struct {
	Properties int
	Completed  int
	Skipped    int
	NewImages  int
	Duplicates int
	Invalid    int
	Exhausted  []ExhaustedProperty
}

// ExhaustedProperty names a property no source could satisfy, with the
// per-source failure reasons for operator triage.
type ExhaustedProperty struct {
	Key     string
	Reasons map[string]string
}

// propertyResult is the outcome of processing a single property.
type propertyResult struct {
	key        string
	status     propix.PropertyStatus
	skipped    bool
	newImages  int
	duplicates int
	invalid    int
	reasons    map[string]string
}

// Run processes all properties with bounded parallelism. Per-property and
// per-source failures are summarized in the Result, never returned as
// errors; only context cancellation aborts the batch.
func (o *Orchestrator) Run(ctx context.Context, properties []*propix.Property) (*Result, error) {
	if o.Breaker == nil {
		o.Breaker = NewCircuitBreaker()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	concurrency := o.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]propertyResult, len(properties))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range properties {
		g.Go(func() error {
			results[i] = o.processProperty(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{Properties: len(properties)}
	for _, pr := range results {
		res.NewImages += pr.newImages
		res.Duplicates += pr.duplicates
		res.Invalid += pr.invalid
		switch {
		case pr.skipped:
			res.Skipped++
		case pr.status == propix.StatusCompleted:
			res.Completed++
		case pr.status == propix.StatusExhausted:
			res.Exhausted = append(res.Exhausted, ExhaustedProperty{Key: pr.key, Reasons: pr.reasons})
		}
	}
	sort.Slice(res.Exhausted, func(i, j int) bool { return res.Exhausted[i].Key < res.Exhausted[j].Key })

	return res, ctx.Err()
}

// processProperty walks the property through the per-property state
// machine: NOT_STARTED -> TRYING_SOURCE(i) -> {SUCCESS | TRYING_SOURCE(i+1)
// | EXHAUSTED}.
func (o *Orchestrator) processProperty(ctx context.Context, p *propix.Property) propertyResult {
	pr := propertyResult{key: p.Key, reasons: make(map[string]string)}
	logger := o.Logger.With("property", p.Key)

	prior, hasPrior := o.State.State(p.Key)
	if hasPrior && prior.Status == propix.StatusCompleted && !o.ForceRefresh {
		logger.Debug("already completed, skipping")
		pr.skipped = true
		pr.status = propix.StatusCompleted
		return pr
	}

	// A crash left this property mid-flight: keep its attempt counts so
	// already-tried sources are not re-attempted. Any other prior status is
	// a fresh start.
	resuming := hasPrior && prior.Status == propix.StatusInProgress

	if err := o.State.Update(ctx, p.Key, func(ps *propix.PropertyState) {
		ps.Status = propix.StatusInProgress
		if !resuming {
			ps.Attempts = make(map[string]int)
		}
	}); err != nil {
		logger.Error("state checkpoint failed", "error", err)
		pr.status = propix.StatusExhausted
		pr.reasons["_state"] = err.Error()
		return pr
	}

	minImages := o.MinImages
	if minImages <= 0 {
		minImages = DefaultMinImages
	}

	// Under force refresh cached images do not satisfy the threshold:
	// only photos seen this run count, with re-downloads of known photos
	// landing as duplicates.
	countImages := func() int {
		if o.ForceRefresh {
			return pr.newImages + pr.duplicates
		}
		return len(o.Store.Images(p.Key))
	}

	// URL dedup is per property: the same CDN URL on two listings is
	// fetched for each, so every property gets its own attribution.
	seen := newURLFilter()

	total := countImages()
	for _, src := range o.sources() {
		if total >= minImages {
			break
		}
		if ctx.Err() != nil {
			// Leave the property in-progress; the next run resumes it.
			return pr
		}
		if resuming && prior.Attempted(src.Name) {
			logger.Debug("source already attempted before crash, skipping", "source", src.Name)
			continue
		}
		if !o.Breaker.Allow(src.Name) {
			logger.Info("circuit open, skipping source", "source", src.Name)
			pr.reasons[src.Name] = "circuit open"
			o.recordAttempt(ctx, p, src.Name, propix.OutcomeSkipped, 0, 0, "circuit open")
			continue
		}

		out := o.attemptSource(ctx, logger, p, src, seen)
		pr.newImages += out.newImages
		pr.duplicates += out.duplicates
		pr.invalid += out.invalid

		// Checkpoint after every source attempt, success or not, so a crash
		// resumes at the next untried source.
		if err := o.State.Update(ctx, p.Key, func(ps *propix.PropertyState) {
			ps.Attempts[src.Name]++
			ps.LastSource = src.Name
			ps.Images += out.newImages
		}); err != nil {
			logger.Error("state checkpoint failed", "source", src.Name, "error", err)
		}

		switch {
		case out.challenge:
			pr.reasons[src.Name] = out.reason
			o.recordAttempt(ctx, p, src.Name, propix.OutcomeChallenge, 0, 0, out.reason)
		case out.failed:
			pr.reasons[src.Name] = out.reason
			o.recordAttempt(ctx, p, src.Name, propix.OutcomeFailure, out.newImages, out.duplicates, out.reason)
		default:
			o.recordAttempt(ctx, p, src.Name, propix.OutcomeSuccess, out.newImages, out.duplicates, "")
		}

		total = countImages()
	}

	if total >= minImages {
		pr.status = propix.StatusCompleted
	} else {
		pr.status = propix.StatusExhausted
	}
	if err := o.State.Update(ctx, p.Key, func(ps *propix.PropertyState) {
		ps.Status = pr.status
	}); err != nil {
		logger.Error("state checkpoint failed", "error", err)
	}

	logger.Info("property finished",
		"status", string(pr.status),
		"images", total,
		"new", pr.newImages,
		"duplicates", pr.duplicates,
	)
	return pr
}

// attemptOutcome classifies one source attempt.
type attemptOutcome struct {
	challenge  bool
	failed     bool
	reason     string
	newImages  int
	duplicates int
	invalid    int
	downloaded bool
}

// attemptSource runs discovery against one source and downloads its
// candidates with bounded concurrency.
func (o *Orchestrator) attemptSource(ctx context.Context, logger *slog.Logger, p *propix.Property, src propix.RegisteredSource, seen *urlFilter) attemptOutcome {
	var out attemptOutcome

	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx, src.Name); err != nil {
			out.failed = true
			out.reason = "rate limit wait canceled"
			return out
		}
	}

	timeout := o.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	disc, err := src.Extractor.Discover(actx, p)
	if err != nil {
		o.Breaker.RecordFailure(src.Name)
		if propix.ErrorCode(err) == propix.ECHALLENGE {
			// Logged distinctly from structural failures: a challenge means
			// the source is actively defending, not broken.
			logger.Warn("anti-automation challenge unsolved", "source", src.Name, "error", propix.ErrorMessage(err))
			out.challenge = true
		} else {
			logger.Warn("source discovery failed", "source", src.Name, "error", propix.ErrorMessage(err))
			out.failed = true
		}
		out.reason = propix.ErrorMessage(err)
		return out
	}

	logger.Info("discovered candidates", "source", src.Name, "count", len(disc.Images))
	if len(disc.Images) == 0 {
		// A listing with no photos is not a source fault, but it proves
		// nothing either: hand back any half-open trial rather than leave
		// the circuit stuck with its one trial consumed.
		o.Breaker.ReleaseTrial(src.Name)
		return out
	}

	delays := o.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	downloadConcurrency := o.DownloadConcurrency
	if downloadConcurrency <= 0 {
		downloadConcurrency = DefaultDownloadConcurrency
	}

	var mu sync.Mutex
	dg, dctx := errgroup.WithContext(actx)
	dg.SetLimit(downloadConcurrency)
	for _, cand := range disc.Images {
		url := cand.URL
		if !seen.firstVisit(url) {
			continue
		}
		dg.Go(func() error {
			data, err := DownloadWithRetryDelays(dctx, url, o.Downloader.Download, nil, delays)
			if err != nil {
				logger.Debug("download failed", "source", src.Name, "url", url, "error", err)
				return nil
			}

			fp, info, err := o.Hasher.Hash(data)
			if err != nil {
				// Undecodable or out-of-bounds bytes are discarded, never
				// stored or deduplicated.
				logger.Debug("rejected image", "source", src.Name, "url", url, "error", propix.ErrorMessage(err))
				mu.Lock()
				out.invalid++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			out.downloaded = true
			mu.Unlock()

			if err := o.keepImage(dctx, p, src.Name, data, fp, info, &mu, &out); err != nil {
				logger.Error("persist failed", "source", src.Name, "url", url, "error", err)
			}
			return nil
		})
	}
	_ = dg.Wait()

	// A successful download is the only thing that resets the failure
	// streak; a source returning only dead links stays degraded.
	if out.downloaded {
		o.Breaker.RecordSuccess(src.Name)
	} else {
		o.Breaker.RecordFailure(src.Name)
		out.failed = true
		out.reason = "no candidate URL downloaded"
	}
	return out
}

// keepImage runs the dedup-check-then-persist critical section for one
// validated download.
func (o *Orchestrator) keepImage(ctx context.Context, p *propix.Property, source string, data []byte, fp propix.Fingerprint, info *propix.ImageInfo, mu *sync.Mutex, out *attemptOutcome) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	dup, _, err := o.Dedup.IsDuplicate(fp)
	if err != nil {
		return err
	}
	if dup {
		mu.Lock()
		out.duplicates++
		mu.Unlock()
		return o.Store.RecordDuplicate(ctx)
	}

	hash, path, err := o.Store.Put(data, imghash.Ext(info.Format))
	if err != nil {
		return err
	}
	rec := &propix.ImageRecord{
		ID:             uuid.NewString(),
		PropertyKey:    p.Key,
		ContentHash:    hash,
		PerceptualHash: fp,
		Source:         source,
		StoragePath:    path,
		Width:          info.Width,
		Height:         info.Height,
		CreatedByRun:   o.State.RunID(),
		DiscoveredAt:   time.Now().UTC(),
	}
	if err := o.Store.Record(ctx, rec); err != nil {
		return err
	}
	if err := o.Dedup.Register(rec.ID, fp, p.Key, source); err != nil {
		return err
	}

	mu.Lock()
	out.newImages++
	mu.Unlock()
	return nil
}

// sources returns the registered sources to try, honoring the subset
// restriction, in priority order.
func (o *Orchestrator) sources() []propix.RegisteredSource {
	all := o.Registry.ByPriority()
	if len(o.Sources) == 0 {
		return all
	}
	allowed := make(map[string]bool, len(o.Sources))
	for _, name := range o.Sources {
		allowed[name] = true
	}
	out := make([]propix.RegisteredSource, 0, len(all))
	for _, src := range all {
		if allowed[src.Name] {
			out = append(out, src)
		}
	}
	return out
}

func (o *Orchestrator) recordAttempt(ctx context.Context, p *propix.Property, source string, outcome propix.AttemptOutcome, images, duplicates int, reason string) {
	if o.Stats == nil {
		return
	}
	a := &propix.SourceAttempt{
		RunID:       o.State.RunID(),
		PropertyKey: p.Key,
		Source:      source,
		Outcome:     outcome,
		Images:      images,
		Duplicates:  duplicates,
		Reason:      reason,
		At:          time.Now().UTC(),
	}
	if err := o.Stats.RecordAttempt(ctx, a); err != nil {
		o.Logger.Warn("stats ledger write failed", "error", err)
	}
}
