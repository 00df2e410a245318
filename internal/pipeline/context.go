// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"sync/atomic"

	"github.com/pdiddy/clause-risk/internal/normalize"
	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/internal/segment"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// PipelineContext is the read-only state every stage of a run shares. It
// is never modified after construction; refreshing rules builds a new one.
type PipelineContext struct {
	Rules      *risk.RuleTable
	Normalizer *normalize.Normalizer
	Segmenter  *segment.Segmenter
	Regime     types.ScoringRegime
	// PresetName and Preset are the rating thresholds resolved from the
	// rule table for Regime.
	PresetName string
	Preset     risk.RatingThresholds
	Workers    int

	presetRequest string
}

// NewContext assembles a context from cfg and a loaded rule table.
// splitter is required for the sentence strategy.
func NewContext(cfg types.PipelineConfig, rules *risk.RuleTable, splitter segment.SentenceSplitter) (*PipelineContext, error) {
	if rules == nil {
		return nil, &risk.ConfigError{Source: "pipeline", Reason: "no rule table loaded"}
	}
	norm, err := normalize.New(cfg.Normalization)
	if err != nil {
		return nil, &risk.ConfigError{Source: "normalization", Reason: "invalid header pattern", Err: err}
	}
	seg, err := segment.New(cfg.Segmentation, splitter)
	if err != nil {
		return nil, &risk.ConfigError{Source: "segmentation", Reason: "invalid segmenter", Err: err}
	}

	regime := cfg.Scoring.Regime
	if regime == "" {
		regime = types.RegimeWeighted
	}
	if regime != types.RegimeWeighted && regime != types.RegimeBanded {
		return nil, &risk.ConfigError{Source: "scoring", Reason: fmt.Sprintf("unknown regime %q", regime)}
	}

	pc := &PipelineContext{
		Normalizer:    norm,
		Segmenter:     seg,
		Regime:        regime,
		Workers:       cfg.Scoring.Workers,
		presetRequest: cfg.Scoring.RatingPreset,
	}
	return pc.WithRules(rules)
}

// WithRules returns a copy of c scoring against rules. The rating preset is
// resolved again, since the new table may define different thresholds.
func (c *PipelineContext) WithRules(rules *risk.RuleTable) (*PipelineContext, error) {
	name, thresholds, err := rules.Preset(c.presetRequest, c.Regime)
	if err != nil {
		return nil, err
	}
	next := *c
	next.Rules = rules
	next.PresetName = name
	next.Preset = thresholds
	return &next, nil
}

// ContextHolder publishes the current PipelineContext. A run loads it once
// and keeps that snapshot to the end, so a concurrent Swap never mixes two
// rule tables inside one document.
type ContextHolder struct {
	current atomic.Pointer[PipelineContext]
}

// NewContextHolder returns a holder publishing c.
func NewContextHolder(c *PipelineContext) *ContextHolder {
	h := &ContextHolder{}
	h.current.Store(c)
	return h
}

// Load returns the current context.
func (h *ContextHolder) Load() *PipelineContext { return h.current.Load() }

// Swap publishes c and returns the context it replaced.
func (h *ContextHolder) Swap(c *PipelineContext) *PipelineContext {
	return h.current.Swap(c)
}

// SwapRules publishes a copy of the current context using rules.
func (h *ContextHolder) SwapRules(rules *risk.RuleTable) error {
	next, err := h.Load().WithRules(rules)
	if err != nil {
		return err
	}
	h.Swap(next)
	return nil
}
