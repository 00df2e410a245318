// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes pipeline results in the CSV and JSON layouts that
// downstream storage and UI consumers read, and reads scored CSVs back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// Column headers. These are fixed interfaces and must not change.
var (
	ScoredHeader     = []string{"clause_id", "text", "model_is_risky", "model_risk_reason", "model_risk_score"}
	PreScoringHeader = []string{"clause_id", "text", "is_risky", "risky_reason"}
	SegmentsHeader   = []string{"Sentence_ID", "Sentence", "Clause_ID", "Clause"}
	EntitiesHeader   = []string{"Entity_Text", "Entity_Type"}
)

const reasonSep = ", "

// Bool renders a flag as the TRUE/FALSE strings consumers expect.
func Bool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Reasons joins tags into the model_risk_reason column.
func Reasons(tags []types.RiskTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, reasonSep)
}

// ScoreCell renders the model_risk_score column: the banded 0..3 score
// before mitigation, so 0 for a clause that is not risky. The configured
// regime only shapes analysis.json.
func ScoreCell(c types.ScoredClause) string {
	return strconv.Itoa(c.BandScore)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	return nil
}

func scoredRow(c types.ScoredClause) []string {
	return []string{strconv.Itoa(c.SequenceID), c.Text, Bool(c.IsRisky), Reasons(c.Tags), ScoreCell(c)}
}

// WriteScored writes every clause as a clauses_scored.csv row.
func WriteScored(w io.Writer, clauses []types.ScoredClause) error {
	rows := make([][]string, len(clauses))
	for i, c := range clauses {
		rows[i] = scoredRow(c)
	}
	return writeAll(w, ScoredHeader, rows)
}

// WriteRisky writes only the risky clauses, in the scored layout.
func WriteRisky(w io.Writer, clauses []types.ScoredClause) error {
	var rows [][]string
	for _, c := range clauses {
		if c.IsRisky {
			rows = append(rows, scoredRow(c))
		}
	}
	return writeAll(w, ScoredHeader, rows)
}

// WritePreScoring writes clauses with empty placeholder risk columns.
func WritePreScoring(w io.Writer, clauses []types.Clause) error {
	rows := make([][]string, len(clauses))
	for i, c := range clauses {
		rows[i] = []string{strconv.Itoa(c.SequenceID), c.Text, "", ""}
	}
	return writeAll(w, PreScoringHeader, rows)
}

// WriteSegments writes one row per clause next to the sentence it came
// from. Clause_ID restarts at 1 within each sentence.
func WriteSegments(w io.Writer, sentences []string, clauses []types.Clause) error {
	var rows [][]string
	perSentence := make(map[int]int)
	for _, c := range clauses {
		if c.SourceSentenceID < 1 || c.SourceSentenceID > len(sentences) {
			return fmt.Errorf("clause %d refers to missing sentence %d", c.SequenceID, c.SourceSentenceID)
		}
		perSentence[c.SourceSentenceID]++
		rows = append(rows, []string{
			strconv.Itoa(c.SourceSentenceID),
			sentences[c.SourceSentenceID-1],
			strconv.Itoa(perSentence[c.SourceSentenceID]),
			c.Text,
		})
	}
	return writeAll(w, SegmentsHeader, rows)
}

// WriteEntities writes entities in order of appearance.
func WriteEntities(w io.Writer, entities []types.Entity) error {
	rows := make([][]string, len(entities))
	for i, e := range entities {
		rows[i] = []string{e.Text, string(e.Type)}
	}
	return writeAll(w, EntitiesHeader, rows)
}

// ReadScored parses a clauses_scored.csv stream. Only the columns the
// file carries are restored: sequence ID, text, risk flag, tags and the
// banded score, which also stands in for the base and final score.
func ReadScored(r io.Reader) ([]types.ScoredClause, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ScoredHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, want := range ScoredHeader {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != want {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i+1, header[i], want)
		}
	}

	var out []types.ScoredClause
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		c, err := parseScored(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
}

func parseScored(rec []string) (types.ScoredClause, error) {
	id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
	if err != nil {
		return types.ScoredClause{}, fmt.Errorf("bad clause_id %q", rec[0])
	}

	var risky bool
	switch strings.ToUpper(strings.TrimSpace(rec[2])) {
	case "TRUE":
		risky = true
	case "FALSE", "":
	default:
		return types.ScoredClause{}, fmt.Errorf("bad model_is_risky %q", rec[2])
	}

	c := types.ScoredClause{
		Clause:           types.Clause{SequenceID: id, Text: rec[1]},
		Tags:             []types.RiskTag{},
		MitigationsFound: []string{},
		IsRisky:          risky,
	}
	for _, tag := range strings.Split(rec[3], ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			c.Tags = append(c.Tags, types.RiskTag(tag))
		}
	}
	if s := strings.TrimSpace(rec[4]); s != "" {
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.ScoredClause{}, fmt.Errorf("bad model_risk_score %q", rec[4])
		}
		c.BaseScore, c.FinalScore = score, score
		c.BandScore = int(math.Round(score))
	}
	return c, nil
}
