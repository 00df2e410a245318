// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OCREngine identifies where tesseract runs.
type OCREngine string

const (
	OCRLocal     OCREngine = "local"
	OCRContainer OCREngine = "container"
)

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// OCREngine selects local tesseract or a tesseract container image.
	OCREngine OCREngine `json:"ocr_engine" yaml:"ocr_engine" mapstructure:"ocr_engine"`

	// OCRLanguage is passed to tesseract -l (default "eng").
	OCRLanguage string `json:"ocr_language" yaml:"ocr_language" mapstructure:"ocr_language"`

	// OCRDPI is the resolution pages are rendered at before recognition (default 300).
	OCRDPI int `json:"ocr_dpi" yaml:"ocr_dpi" mapstructure:"ocr_dpi"`

	// OCRWorkers bounds the number of pages recognized concurrently (default 4).
	OCRWorkers int `json:"ocr_workers" yaml:"ocr_workers" mapstructure:"ocr_workers"`

	// OCRTimeout is the wall-clock budget for the whole OCR fallback of one document.
	OCRTimeout time.Duration `json:"ocr_timeout" yaml:"ocr_timeout" mapstructure:"ocr_timeout"`

	// ContainerImage is the tesseract image used when OCREngine is "container".
	ContainerImage string `json:"container_image" yaml:"container_image" mapstructure:"container_image"`

	// CacheTTL is how long extracted text is kept per document fingerprint.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// NormalizationConfig holds settings for the text normalizer.
type NormalizationConfig struct {
	// HeaderPatterns are regular expressions whose matches are removed.
	HeaderPatterns []string `json:"header_patterns" yaml:"header_patterns" mapstructure:"header_patterns"`

	// DedupeLines removes exact duplicate lines, keeping the first occurrence.
	DedupeLines bool `json:"dedupe_lines" yaml:"dedupe_lines" mapstructure:"dedupe_lines"`

	// UnicodeNFKC folds compatibility characters (ligatures, full-width forms).
	UnicodeNFKC bool `json:"unicode_nfkc" yaml:"unicode_nfkc" mapstructure:"unicode_nfkc"`
}

// SegmentStrategy selects the clause granularity.
type SegmentStrategy string

const (
	SegmentSentence    SegmentStrategy = "sentence"
	SegmentPunctuation SegmentStrategy = "punctuation"
)

// SegmentationConfig holds settings for the clause segmenter.
type SegmentationConfig struct {
	Strategy SegmentStrategy `json:"strategy" yaml:"strategy" mapstructure:"strategy"`

	// MinClauseLength is the shortest fragment, in characters, kept by the
	// punctuation strategy (default 20).
	MinClauseLength int `json:"min_clause_length" yaml:"min_clause_length" mapstructure:"min_clause_length"`
}

// ScoringRegime selects how matched rules turn into a base score.
type ScoringRegime string

const (
	RegimeBanded   ScoringRegime = "banded"
	RegimeWeighted ScoringRegime = "weighted"
)

// ScoringConfig holds settings for the risk engine.
type ScoringConfig struct {
	Regime ScoringRegime `json:"regime" yaml:"regime" mapstructure:"regime"`

	// RatingPreset names the document grade thresholds ("strict" or
	// "standard"). Empty picks the regime's default preset.
	RatingPreset string `json:"rating_preset" yaml:"rating_preset" mapstructure:"rating_preset"`

	// RulesFile overrides the embedded rule table.
	RulesFile string `json:"rules_file" yaml:"rules_file" mapstructure:"rules_file"`

	// Workers bounds parallel clause scoring (default 8).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// StorageConfig holds settings for the SQLite store.
type StorageConfig struct {
	Database string `json:"database" yaml:"database" mapstructure:"database"`
}

// OutputConfig holds settings for on-disk outputs and batch side effects.
type OutputConfig struct {
	// Dir is the base directory; reports land in Dir/<run-id>/<document-id>/.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// ProcessedDir is the folder-relative directory sources are moved to.
	ProcessedDir string `json:"processed_dir" yaml:"processed_dir" mapstructure:"processed_dir"`

	// Owner is mixed into document fingerprints.
	Owner string `json:"owner" yaml:"owner" mapstructure:"owner"`
}

// BatchConfig holds settings for folder processing.
type BatchConfig struct {
	// Rate limits documents started per second; 0 disables the limit.
	Rate float64 `json:"rate" yaml:"rate" mapstructure:"rate"`

	// Debounce is how long watch mode waits for events to settle.
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
}

// PipelineConfig is the top-level configuration for every stage.
type PipelineConfig struct {
	Extraction    ExtractionConfig    `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Normalization NormalizationConfig `json:"normalization" yaml:"normalization" mapstructure:"normalization"`
	Segmentation  SegmentationConfig  `json:"segmentation" yaml:"segmentation" mapstructure:"segmentation"`
	Scoring       ScoringConfig       `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Storage       StorageConfig       `json:"storage" yaml:"storage" mapstructure:"storage"`
	Output        OutputConfig        `json:"output" yaml:"output" mapstructure:"output"`
	Batch         BatchConfig         `json:"batch" yaml:"batch" mapstructure:"batch"`
}
