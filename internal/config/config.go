// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns viper settings into a validated PipelineConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// EnvPrefix is prepended to every environment override, e.g.
// CLAUSE_RISK_SCORING_REGIME.
const EnvPrefix = "CLAUSE_RISK"

// defaults lists every key Load knows about. Registering a default also
// makes the key visible to AutomaticEnv during Unmarshal.
var defaults = map[string]any{
	"extraction.ocr_engine":      string(types.OCRLocal),
	"extraction.ocr_language":    "eng",
	"extraction.ocr_dpi":         300,
	"extraction.ocr_workers":     4,
	"extraction.ocr_timeout":     5 * time.Minute,
	"extraction.container_image": "tesseract:latest",
	"extraction.cache_ttl":       30 * time.Minute,

	"normalization.dedupe_lines": true,
	"normalization.unicode_nfkc": true,

	"segmentation.strategy":          string(types.SegmentSentence),
	"segmentation.min_clause_length": 20,

	"scoring.regime":        string(types.RegimeWeighted),
	"scoring.rating_preset": "",
	"scoring.rules_file":    "",
	"scoring.workers":       8,

	"storage.database": "data/clause-risk.db",

	"output.dir":           "output",
	"output.processed_dir": "processed",
	"output.owner":         "local",

	"batch.rate":     0.0,
	"batch.debounce": 2 * time.Second,
}

// SetDefaults registers the default for every key on v and binds
// environment variables under EnvPrefix.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load applies defaults to v, decodes it and validates the result. Any
// problem is returned as a *risk.ConfigError.
func Load(v *viper.Viper) (types.PipelineConfig, error) {
	SetDefaults(v)

	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.PipelineConfig{}, &risk.ConfigError{Source: source(v), Reason: "decoding settings", Err: err}
	}
	if err := Validate(cfg); err != nil {
		return types.PipelineConfig{}, &risk.ConfigError{Source: source(v), Reason: err.Error()}
	}
	return cfg, nil
}

func source(v *viper.Viper) string {
	if f := v.ConfigFileUsed(); f != "" {
		return f
	}
	return "settings"
}

// Validate checks enumerations and numeric ranges.
func Validate(cfg types.PipelineConfig) error {
	switch cfg.Extraction.OCREngine {
	case types.OCRLocal, types.OCRContainer:
	default:
		return fmt.Errorf("extraction.ocr_engine %q: want local or container", cfg.Extraction.OCREngine)
	}
	switch cfg.Segmentation.Strategy {
	case types.SegmentSentence, types.SegmentPunctuation:
	default:
		return fmt.Errorf("segmentation.strategy %q: want sentence or punctuation", cfg.Segmentation.Strategy)
	}
	switch cfg.Scoring.Regime {
	case types.RegimeWeighted, types.RegimeBanded:
	default:
		return fmt.Errorf("scoring.regime %q: want weighted or banded", cfg.Scoring.Regime)
	}

	checks := []struct {
		key string
		ok  bool
	}{
		{"extraction.ocr_dpi", cfg.Extraction.OCRDPI > 0},
		{"extraction.ocr_workers", cfg.Extraction.OCRWorkers > 0},
		{"extraction.ocr_timeout", cfg.Extraction.OCRTimeout > 0},
		{"extraction.cache_ttl", cfg.Extraction.CacheTTL >= 0},
		{"segmentation.min_clause_length", cfg.Segmentation.MinClauseLength >= 0},
		{"scoring.workers", cfg.Scoring.Workers > 0},
		{"batch.rate", cfg.Batch.Rate >= 0},
		{"batch.debounce", cfg.Batch.Debounce >= 0},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%s is out of range", c.key)
		}
	}
	if cfg.Extraction.OCRLanguage == "" {
		return fmt.Errorf("extraction.ocr_language is empty")
	}
	if cfg.Output.Dir == "" || cfg.Output.ProcessedDir == "" {
		return fmt.Errorf("output.dir and output.processed_dir must be set")
	}
	return nil
}
