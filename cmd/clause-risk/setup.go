package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/pdiddy/clause-risk/internal/config"
	"github.com/pdiddy/clause-risk/internal/container"
	"github.com/pdiddy/clause-risk/internal/extract"
	"github.com/pdiddy/clause-risk/internal/pipeline"
	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/internal/segment"
	"github.com/pdiddy/clause-risk/internal/store"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// loadConfig decodes the global viper settings.
func loadConfig() (types.PipelineConfig, error) {
	return config.Load(viper.GetViper())
}

// loadRules reads the configured rule table, or the embedded one.
func loadRules(cfg types.PipelineConfig) (*risk.RuleTable, error) {
	return risk.LoadRuleTable(cfg.Scoring.RulesFile)
}

// newContext builds the scoring snapshot for cfg with the given rules.
func newContext(cfg types.PipelineConfig, rules *risk.RuleTable) (*pipeline.PipelineContext, error) {
	splitter, err := segment.NewPunktSplitter()
	if err != nil {
		return nil, fmt.Errorf("loading sentence model: %w", err)
	}
	return pipeline.NewContext(cfg, rules, splitter)
}

// newExtractor wires poppler and the configured OCR engine. Missing tools
// are logged, not fatal: text and HTML input still work without them.
func newExtractor(ctx context.Context, cfg types.PipelineConfig) extract.Source {
	ec := cfg.Extraction
	runner := extract.ExecRunner{}

	poppler := extract.NewPoppler(runner, ec.OCRDPI)
	if err := poppler.Check(); err != nil {
		log.Warn().Err(err).Msg("poppler not available, PDF input will fail")
	}

	var ocr extract.Recognizer
	switch ec.OCREngine {
	case types.OCRContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("no container runtime, OCR disabled")
			break
		}
		ct, err := extract.NewContainerTesseract(ctx, rt, ec.ContainerImage, ec.OCRLanguage)
		if err != nil {
			log.Warn().Err(err).Str("image", ec.ContainerImage).Msg("tesseract image not available, OCR disabled")
			break
		}
		ocr = ct
	default:
		t := extract.NewTesseract(runner, ec.OCRLanguage)
		if err := t.Check(); err != nil {
			log.Warn().Err(err).Msg("tesseract not available, OCR disabled")
			break
		}
		ocr = t
	}

	ex := extract.New(poppler, poppler, ocr,
		extract.WithOCRWorkers(ec.OCRWorkers),
		extract.WithOCRTimeout(ec.OCRTimeout),
	)
	return extract.NewCached(ex, ec.CacheTTL)
}

// newPipeline loads config and rules and assembles a ready pipeline.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, types.PipelineConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	rules, err := loadRules(cfg)
	if err != nil {
		return nil, cfg, err
	}
	pc, err := newContext(cfg, rules)
	if err != nil {
		return nil, cfg, err
	}
	return pipeline.New(pipeline.NewContextHolder(pc), newExtractor(ctx, cfg)), cfg, nil
}

// openStore opens the configured database.
func openStore(cfg types.PipelineConfig) (*store.Store, error) {
	return store.Open(cfg.Storage.Database)
}
