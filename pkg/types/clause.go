// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RiskTag is a category label attached to a clause by phrase matching.
// The set of tags is defined by the rule table.
type RiskTag string

// Severity is the clause-level band of a final score.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Rating is the document-level letter grade.
type Rating string

const (
	RatingA Rating = "A"
	RatingB Rating = "B"
	RatingC Rating = "C"
	RatingD Rating = "D"
)

// Clause is one segment of clean text, the unit of risk scoring.
type Clause struct {
	// SequenceID is 1-based and assigned in traversal order.
	SequenceID int `json:"sequence_id" yaml:"sequence_id"`

	Text string `json:"text" yaml:"text"`

	// SourceSentenceID is the 1-based sentence the clause was cut from.
	SourceSentenceID int `json:"source_sentence_id" yaml:"source_sentence_id"`
}

// ScoredClause is a Clause with its risk assessment. BandScore is the 0..3
// banded weight before mitigation whatever the regime; the scored CSV and
// the store record it.
type ScoredClause struct {
	Clause `yaml:",inline"`

	// Tags is sorted and holds no duplicates.
	Tags             []RiskTag `json:"tags" yaml:"tags"`
	BaseScore        float64   `json:"base_score" yaml:"base_score"`
	MitigationsFound []string  `json:"mitigations_found" yaml:"mitigations_found"`
	FinalScore       float64   `json:"final_score" yaml:"final_score"`
	BandScore        int       `json:"band_score" yaml:"band_score"`
	Severity         Severity  `json:"severity" yaml:"severity"`
	IsRisky          bool      `json:"is_risky" yaml:"is_risky"`
	Explanation      string    `json:"explanation" yaml:"explanation"`
}

// DocumentRiskSummary rolls scored clauses up to the document level.
type DocumentRiskSummary struct {
	TotalClauses  int             `json:"total_clauses" yaml:"total_clauses"`
	RiskyClauses  int             `json:"risky_clauses" yaml:"risky_clauses"`
	RiskyPercent  float64         `json:"risky_percent" yaml:"risky_percent"`
	OverallRating Rating          `json:"overall_rating" yaml:"overall_rating"`
	RiskBreakdown map[RiskTag]int `json:"risk_breakdown" yaml:"risk_breakdown"`

	// RatingPreset names the threshold set OverallRating was graded with.
	RatingPreset string `json:"rating_preset" yaml:"rating_preset"`
}

// EntityType labels a span found by the entity finder.
type EntityType string

const (
	EntityDate    EntityType = "DATE"
	EntityMoney   EntityType = "MONEY"
	EntityPercent EntityType = "PERCENT"
)

// Entity is one typed span of clean text.
type Entity struct {
	Text string     `json:"text" yaml:"text"`
	Type EntityType `json:"type" yaml:"type"`
}

// DocumentReport is everything one pipeline run produced for one document.
// Sentences are the segmenter's sentences; Clause.SourceSentenceID indexes
// them from 1.
type DocumentReport struct {
	RunID        string              `json:"run_id" yaml:"run_id"`
	Document     Document            `json:"document" yaml:"document"`
	Method       ExtractionMethod    `json:"method" yaml:"method"`
	Strategy     SegmentStrategy     `json:"strategy" yaml:"strategy"`
	Regime       ScoringRegime       `json:"regime" yaml:"regime"`
	RulesVersion int                 `json:"rules_version" yaml:"rules_version"`
	CleanText    string              `json:"-" yaml:"-"`
	Sentences    []string            `json:"-" yaml:"-"`
	Entities     []Entity            `json:"entities,omitempty" yaml:"entities,omitempty"`
	Clauses      []ScoredClause      `json:"clauses" yaml:"clauses"`
	Summary      DocumentRiskSummary `json:"summary" yaml:"summary"`
	GeneratedAt  time.Time           `json:"generated_at" yaml:"generated_at"`
}

// RiskyClauses returns the clauses flagged as risky, in sequence order.
func (r *DocumentReport) RiskyClauses() []ScoredClause {
	var out []ScoredClause
	for _, c := range r.Clauses {
		if c.IsRisky {
			out = append(out, c)
		}
	}
	return out
}
