// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes extraction, normalization, segmentation,
// scoring and aggregation for one document at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/clause-risk/internal/entity"
	"github.com/pdiddy/clause-risk/internal/extract"
	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// ErrNothingToProcess means a document yielded no text or no clauses. It
// is an expected outcome for blank or degraded scans, not a failure.
var ErrNothingToProcess = errors.New("nothing to process")

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Pipeline runs documents against the context currently held by its
// ContextHolder.
type Pipeline struct {
	holder *ContextHolder
	source extract.Source
	now    func() time.Time
}

// New returns a Pipeline reading documents through source.
func New(holder *ContextHolder, source extract.Source) *Pipeline {
	return &Pipeline{holder: holder, source: source, now: time.Now}
}

// Holder returns the context holder so callers can publish refreshed rules.
func (p *Pipeline) Holder() *ContextHolder { return p.holder }

// Run extracts doc and analyzes its text under runID. It returns
// ErrNothingToProcess when extraction or normalization leaves nothing.
func (p *Pipeline) Run(ctx context.Context, runID string, doc types.Document) (*types.DocumentReport, error) {
	pc := p.holder.Load()

	raw := p.source.Extract(ctx, doc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw.FailedPages) > 0 {
		log.Warn().
			Str("run_id", runID).
			Str("document", doc.Name).
			Ints("pages", raw.FailedPages).
			Msg("some pages contributed no text")
	}
	if raw.Empty() {
		return nil, fmt.Errorf("%s: no text extracted: %w", doc.Name, ErrNothingToProcess)
	}
	return p.analyze(ctx, pc, runID, doc, raw.Method, raw.Text)
}

// AnalyzeText runs every stage after extraction on text, for input that
// did not come from a file, such as a fetched web page.
func (p *Pipeline) AnalyzeText(ctx context.Context, runID string, doc types.Document, text string) (*types.DocumentReport, error) {
	return p.analyze(ctx, p.holder.Load(), runID, doc, types.MethodDirect, text)
}

func (p *Pipeline) analyze(ctx context.Context, pc *PipelineContext, runID string, doc types.Document, method types.ExtractionMethod, text string) (*types.DocumentReport, error) {
	logger := log.With().Str("run_id", runID).Str("document", doc.Name).Logger()

	clean := pc.Normalizer.Clean(text)
	if clean == "" {
		return nil, fmt.Errorf("%s: text is empty after normalization: %w", doc.Name, ErrNothingToProcess)
	}
	logger.Debug().Str("stage", "normalize").Int("chars", len(clean)).Msg("text normalized")

	sentences, clauses := p.segment(pc, clean)
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%s: no clauses found: %w", doc.Name, ErrNothingToProcess)
	}
	logger.Debug().Str("stage", "segment").Int("sentences", len(sentences)).Int("clauses", len(clauses)).Msg("text segmented")

	scored := risk.ScoreClauses(ctx, clauses, pc.Rules, pc.Regime, pc.Workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summary := risk.Summarize(scored, pc.PresetName, pc.Preset)

	logger.Info().
		Str("stage", "aggregate").
		Int("clauses", summary.TotalClauses).
		Int("risky", summary.RiskyClauses).
		Float64("risky_percent", summary.RiskyPercent).
		Str("rating", string(summary.OverallRating)).
		Msg("document scored")

	return &types.DocumentReport{
		RunID:        runID,
		Document:     doc,
		Method:       method,
		Strategy:     pc.Segmenter.Strategy(),
		Regime:       pc.Regime,
		RulesVersion: pc.Rules.Version,
		CleanText:    clean,
		Sentences:    sentences,
		Entities:     entity.Find(clean),
		Clauses:      scored,
		Summary:      summary,
		GeneratedAt:  p.now().UTC(),
	}, nil
}

// Segments extracts, normalizes and segments doc without scoring it. It
// fails with ErrNothingToProcess under the same conditions as Run.
func (p *Pipeline) Segments(ctx context.Context, doc types.Document) (sentences []string, clauses []types.Clause, err error) {
	pc := p.holder.Load()
	raw := p.source.Extract(ctx, doc)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	clean := pc.Normalizer.Clean(raw.Text)
	if clean == "" {
		return nil, nil, fmt.Errorf("%s: no text: %w", doc.Name, ErrNothingToProcess)
	}
	sentences, clauses = p.segment(pc, clean)
	if len(clauses) == 0 {
		return nil, nil, fmt.Errorf("%s: no clauses found: %w", doc.Name, ErrNothingToProcess)
	}
	return sentences, clauses, nil
}

// segment returns the sentences and clauses of clean. Under the
// punctuation strategy every clause is its own sentence.
func (p *Pipeline) segment(pc *PipelineContext, clean string) ([]string, []types.Clause) {
	if pc.Segmenter.Strategy() == types.SegmentPunctuation {
		clauses := pc.Segmenter.Segment(clean)
		sentences := make([]string, len(clauses))
		for i, c := range clauses {
			sentences[i] = c.Text
		}
		return sentences, clauses
	}
	return pc.Segmenter.BySentence(clean)
}
