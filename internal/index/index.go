// Package index drives incremental indexing runs: walk the tree, detect
// stale files, extract content in parallel, and persist through the store.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	rerr "github.com/repoman-dev/repoman/internal/errors"
	"github.com/repoman-dev/repoman/internal/extract"
	"github.com/repoman-dev/repoman/internal/store"
	"github.com/repoman-dev/repoman/internal/walker"
)

// defaultParallelThreshold is the candidate count above which extraction
// fans out to a worker pool. Small batches are faster serially.
const defaultParallelThreshold = 100

// Options configures one indexing run.
type Options struct {
	// Root is the directory tree to index.
	Root string

	// Suffixes limits indexing to these extensions (lowercase, no dot).
	Suffixes []string

	// SkipDirs are directory names pruned during the walk.
	SkipDirs []string

	// Force reindexes every candidate regardless of recorded state.
	Force bool

	// Cleanup removes index entries whose files no longer exist.
	Cleanup bool

	// Workers sets pool size (0 = 2*NumCPU-1).
	Workers int

	// ParallelThreshold is the candidate count above which the pool is used
	// (0 = default).
	ParallelThreshold int

	// Store configures the store handle for this run.
	Store store.Options

	// LockPath guards the data directory against concurrent runs
	// ("" = no locking, used by tests).
	LockPath string

	// Runner overrides the external-tool runner for extraction (tests).
	Runner extract.Runner
}

// Progress is one unit of forward motion, sent after each file completes.
type Progress struct {
	Done  int
	Total int
	Path  string
}

// Failure records a per-document problem that did not abort the run.
type Failure struct {
	Path string
	Err  error
}

// Summary is the outcome of an indexing run.
type Summary struct {
	Scanned  int // files seen by the walk
	Fresh    int // already current, skipped
	Indexed  int // documents written
	Removed  int // stale entries cleaned up
	Failures []Failure
	Warnings []Failure
	Elapsed  time.Duration
}

// docResult carries one extracted document from a worker to the writer.
type docResult struct {
	cand Candidate
	doc  store.Document
	warn error
	err  error
}

// Run executes a full indexing pass. Per-document failures are collected in
// the summary; only fatal conditions (schema missing, lock held, cancelled
// context) abort the run. Progress updates, if a channel is given, are sent
// after every written document; the channel is not closed by Run.
func Run(ctx context.Context, opts Options, progress chan<- Progress) (Summary, error) {
	start := time.Now()
	var summary Summary

	if opts.LockPath != "" {
		fl := flock.New(opts.LockPath)
		locked, err := fl.TryLock()
		if err != nil {
			return summary, fmt.Errorf("failed to acquire index lock: %w", err)
		}
		if !locked {
			return summary, rerr.New(rerr.ErrCodeStoreLocked,
				"another indexing run holds the data directory lock", nil)
		}
		defer func() { _ = fl.Unlock() }()
	}

	st, err := store.Open(opts.Store)
	if err != nil {
		return summary, err
	}
	defer st.Close()

	if err := st.CheckSchema(ctx); err != nil {
		return summary, err
	}

	results, err := walker.Walk(ctx, walker.Options{
		Root:            opts.Root,
		SkipDirs:        opts.SkipDirs,
		IncludeSuffixes: opts.Suffixes,
	})
	if err != nil {
		return summary, err
	}
	entries, err := walker.Collect(results)
	if err != nil {
		return summary, err
	}
	summary.Scanned = len(entries)

	indexed, err := st.PathsLastModified(ctx)
	if err != nil {
		return summary, err
	}

	candidates, fresh := SelectForIndexing(indexed, entries, opts.Force)
	summary.Fresh = fresh

	slog.Info("index_run_start",
		slog.String("root", opts.Root),
		slog.Int("scanned", summary.Scanned),
		slog.Int("stale", len(candidates)),
		slog.Int("fresh", fresh))

	ext := extract.New(opts.Runner)
	if err := writeCandidates(ctx, st, ext, opts, candidates, progress, &summary); err != nil {
		return summary, err
	}

	if opts.Cleanup {
		removed, err := cleanup(ctx, st, indexed)
		if err != nil {
			return summary, err
		}
		summary.Removed = len(removed)
	}

	summary.Elapsed = time.Since(start)
	slog.Info("index_run_complete",
		slog.Int("indexed", summary.Indexed),
		slog.Int("removed", summary.Removed),
		slog.Int("failures", len(summary.Failures)),
		slog.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// writeCandidates extracts and persists the stale candidates. Extraction
// runs in a pool above the threshold; the store is written from this
// goroutine only, so a single handle suffices for any pool size.
func writeCandidates(ctx context.Context, st *store.Store, ext *extract.Extractor,
	opts Options, candidates []Candidate, progress chan<- Progress, summary *Summary) error {

	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 2*runtime.NumCPU() - 1
	}
	if len(candidates) <= threshold {
		workers = 1
	}

	total := len(candidates)
	done := 0
	write := func(res docResult) error {
		done++
		if res.warn != nil {
			summary.Warnings = append(summary.Warnings, Failure{Path: res.cand.Path, Err: res.warn})
		}
		if res.err != nil {
			if rerr.IsFatal(res.err) {
				return res.err
			}
			summary.Failures = append(summary.Failures, Failure{Path: res.cand.Path, Err: res.err})
			return nil
		}

		err := rerr.Retry(ctx, rerr.StorePolicy(), func() error {
			_, upsertErr := st.Upsert(ctx, res.doc)
			return upsertErr
		})
		if err != nil {
			if rerr.IsFatal(err) || ctx.Err() != nil {
				return err
			}
			summary.Failures = append(summary.Failures, Failure{Path: res.cand.Path, Err: err})
			return nil
		}
		summary.Indexed++

		if progress != nil {
			select {
			case progress <- Progress{Done: done, Total: total, Path: res.cand.Path}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	if workers == 1 {
		for _, cand := range candidates {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := write(buildDocument(ctx, ext, cand)); err != nil {
				return err
			}
		}
		return nil
	}

	jobs := make(chan Candidate)
	results := make(chan docResult, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, cand := range candidates {
			select {
			case jobs <- cand:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var pool errgroup.Group
	for i := 0; i < workers; i++ {
		pool.Go(func() error {
			for cand := range jobs {
				select {
				case results <- buildDocument(gctx, ext, cand):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		_ = pool.Wait()
		close(results)
	}()

	var writeErr error
	for res := range results {
		if writeErr != nil {
			continue // drain so the pool can finish
		}
		writeErr = write(res)
	}
	if err := g.Wait(); err != nil && writeErr == nil {
		writeErr = err
	}
	return writeErr
}

// buildDocument extracts content and assembles the full document state for
// one candidate. Extraction problems that leave usable metadata degrade to
// a warning with an empty or partial body; anything else is a failure.
func buildDocument(ctx context.Context, ext *extract.Extractor, cand Candidate) docResult {
	res := docResult{cand: cand}
	res.doc = store.Document{
		Path:    cand.Path,
		Suffix:  cand.Suffix,
		LastMod: cand.LastMod,
		Tags:    extract.Tags(cand.Path),
	}

	content, ok, err := ext.Extract(ctx, cand.Path, cand.Suffix)
	if err != nil {
		switch rerr.CodeOf(err) {
		case rerr.ErrCodeLinkMarkup, rerr.ErrCodeFileCorrupt:
			// Keep what extraction salvaged; the document is still findable
			// by name and tags.
			res.warn = err
		default:
			res.err = err
			return res
		}
	}
	if ok {
		res.doc.Body = content.Body
		res.doc.Links = storeLinks(content.Links)
	}
	return res
}

// storeLinks maps extracted links onto their stored form.
func storeLinks(links []extract.Link) []store.Link {
	if len(links) == 0 {
		return nil
	}
	out := make([]store.Link, len(links))
	for i, l := range links {
		out[i] = store.Link{URL: l.URL, Description: l.Description}
	}
	return out
}

// cleanup deletes index entries whose files have disappeared and returns the
// removed paths, sorted.
func cleanup(ctx context.Context, st *store.Store, indexed map[string]string) ([]string, error) {
	var removed []string
	for path := range indexed {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			err := rerr.Retry(ctx, rerr.StorePolicy(), func() error {
				return st.DeleteByPath(ctx, path)
			})
			if err != nil {
				return removed, err
			}
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)
	return removed, nil
}
