// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch processes every new document in a folder, one run at a
// time per folder, and moves handled sources aside.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pdiddy/clause-risk/internal/extract"
	"github.com/pdiddy/clause-risk/internal/pipeline"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// combinedPrefix names the PDF loose images are merged into.
const combinedPrefix = "combined_document_"

// Analyzer runs one document through the pipeline.
type Analyzer interface {
	Run(ctx context.Context, runID string, doc types.Document) (*types.DocumentReport, error)
}

// Sink receives each successful report, for example to write output files
// or persist it. A sink error marks the document failed.
type Sink func(ctx context.Context, report *types.DocumentReport) error

// Options configures a Runner.
type Options struct {
	// Owner is mixed into document fingerprints.
	Owner string
	// ProcessedDir is the folder-relative directory handled sources move to.
	ProcessedDir string
	// Rate caps documents started per second. Zero means no limit.
	Rate float64
}

// Result holds the outcome of one batch run.
type Result struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
}

// Total returns the number of documents seen.
func (r Result) Total() int {
	return r.Processed + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Runner drives batch runs over folders.
type Runner struct {
	analyzer Analyzer
	sinks    []Sink
	opts     Options
	limiter  *rate.Limiter
	now      func() time.Time
}

// New returns a Runner that hands every report to sinks in order.
func New(analyzer Analyzer, opts Options, sinks ...Sink) *Runner {
	if opts.ProcessedDir == "" {
		opts.ProcessedDir = "processed"
	}
	if opts.Owner == "" {
		opts.Owner = "local"
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &Runner{
		analyzer: analyzer,
		sinks:    sinks,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
	}
}

// pending lists the sources in folder not yet handled: documents to run
// one by one and images to merge into a single PDF.
type pending struct {
	documents []string
	images    []string
}

func (r *Runner) scan(folder string) (pending, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return pending{}, fmt.Errorf("reading folder %s: %w", folder, err)
	}
	processed := filepath.Join(folder, r.opts.ProcessedDir)

	var p pending
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		kind, ok := extract.KindOf(name)
		if !ok {
			continue
		}
		if _, err := os.Stat(filepath.Join(processed, name)); err == nil {
			continue
		}
		path := filepath.Join(folder, name)
		if kind == types.KindImage && extract.Combinable(name) {
			p.images = append(p.images, path)
		} else {
			p.documents = append(p.documents, path)
		}
	}
	sort.Strings(p.documents)
	sort.Strings(p.images)
	return p, nil
}

// Run processes the new documents in folder under a fresh run ID. Status
// lines go to w. Per-document failures are counted, not returned; the
// error is for a folder that cannot be locked or read, or cancellation.
func (r *Runner) Run(ctx context.Context, folder string, w io.Writer) (Result, error) {
	unlock, err := Lock(folder)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	result := Result{RunID: pipeline.NewRunID()}
	logger := log.With().Str("run_id", result.RunID).Str("folder", folder).Logger()

	todo, err := r.scan(folder)
	if err != nil {
		return result, err
	}
	if len(todo.documents) == 0 && len(todo.images) == 0 {
		fmt.Fprintf(w, "nothing new to process in %s\n", folder)
		return result, nil
	}
	logger.Info().Int("documents", len(todo.documents)).Int("images", len(todo.images)).Msg("batch started")

	for _, path := range todo.documents {
		if err := r.process(ctx, folder, path, nil, &result, w); err != nil {
			return result, err
		}
	}

	if len(todo.images) > 0 {
		combined := filepath.Join(folder, combinedPrefix+r.now().Format("20060102_150405")+".pdf")
		if err := extract.CombineImages(todo.images, combined); err != nil {
			fmt.Fprintf(w, "failed:    %d images (%v)\n", len(todo.images), err)
			result.Failed++
		} else {
			fmt.Fprintf(w, "combined:  %d images into %s\n", len(todo.images), filepath.Base(combined))
			failed := result.Failed
			err := r.process(ctx, folder, combined, todo.images, &result, w)
			// The images stay for the next run, which combines them afresh.
			if err != nil || result.Failed > failed {
				if rmErr := os.Remove(combined); rmErr != nil {
					logger.Warn().Err(rmErr).Str("document", filepath.Base(combined)).Msg("could not remove combined document")
				}
			}
			if err != nil {
				return result, err
			}
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d processed, %d skipped, %d failed (total: %d)\n",
		result.Processed, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// process runs one document and, unless it failed, moves it and any
// extra sources it was built from into the processed directory. Only
// cancellation is returned as an error.
func (r *Runner) process(ctx context.Context, folder, path string, sources []string, result *Result, w io.Writer) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	name := filepath.Base(path)

	doc, err := extract.Load(path, r.opts.Owner)
	if err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		result.Failed++
		return nil
	}

	report, err := r.analyzer.Run(ctx, result.RunID, doc)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, pipeline.ErrNothingToProcess):
		fmt.Fprintf(w, "skipped:   %s (nothing to process)\n", name)
		result.Skipped++
	case err != nil:
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		result.Failed++
		return nil
	default:
		for _, sink := range r.sinks {
			if err := sink(ctx, report); err != nil {
				fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
				result.Failed++
				return nil
			}
		}
		s := report.Summary
		fmt.Fprintf(w, "processed: %s (%d clauses, %d risky, rating %s)\n",
			name, s.TotalClauses, s.RiskyClauses, s.OverallRating)
		result.Processed++
	}

	for _, src := range append([]string{path}, sources...) {
		if err := r.moveProcessed(folder, src); err != nil {
			log.Warn().Err(err).Str("document", filepath.Base(src)).Msg("could not move source to processed")
		}
	}
	return nil
}

func (r *Runner) moveProcessed(folder, path string) error {
	dir := filepath.Join(folder, r.opts.ProcessedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return os.Rename(path, filepath.Join(dir, filepath.Base(path)))
}
