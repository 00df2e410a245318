// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// RiskyClause is one entry of the analysis response.
type RiskyClause struct {
	ClauseNumber     int             `json:"clause_number"`
	Text             string          `json:"text"`
	Score            float64         `json:"score"`
	Reasons          []types.RiskTag `json:"reasons"`
	Severity         types.Severity  `json:"severity"`
	Explanation      string          `json:"explanation"`
	MitigationsFound []string        `json:"mitigations_found"`
}

// AnalysisResponse is the JSON document returned to UI clients.
type AnalysisResponse struct {
	TotalClauses  int                   `json:"total_clauses"`
	RiskyClauses  []RiskyClause         `json:"risky_clauses"`
	RiskyPercent  float64               `json:"risky_percent"`
	OverallRating types.Rating          `json:"overall_rating"`
	RiskBreakdown map[types.RiskTag]int `json:"risk_breakdown"`
}

// NewAnalysisResponse builds the response for report. Lists are never
// null in the encoded form.
func NewAnalysisResponse(report *types.DocumentReport) AnalysisResponse {
	resp := AnalysisResponse{
		TotalClauses:  report.Summary.TotalClauses,
		RiskyClauses:  []RiskyClause{},
		RiskyPercent:  report.Summary.RiskyPercent,
		OverallRating: report.Summary.OverallRating,
		RiskBreakdown: report.Summary.RiskBreakdown,
	}
	if resp.RiskBreakdown == nil {
		resp.RiskBreakdown = map[types.RiskTag]int{}
	}
	for _, c := range report.RiskyClauses() {
		rc := RiskyClause{
			ClauseNumber:     c.SequenceID,
			Text:             c.Text,
			Score:            c.FinalScore,
			Reasons:          c.Tags,
			Severity:         c.Severity,
			Explanation:      c.Explanation,
			MitigationsFound: c.MitigationsFound,
		}
		if rc.Reasons == nil {
			rc.Reasons = []types.RiskTag{}
		}
		if rc.MitigationsFound == nil {
			rc.MitigationsFound = []string{}
		}
		resp.RiskyClauses = append(resp.RiskyClauses, rc)
	}
	return resp
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
