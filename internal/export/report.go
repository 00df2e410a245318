// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/clause-risk/pkg/types"
)

// Output file names inside a report directory.
const (
	FileCleanText = "clean_text.txt"
	FileClauses   = "clauses.csv"
	FileSegments  = "sentence_clause_segments.csv"
	FileEntities  = "entities.csv"
	FileScored    = "clauses_scored.csv"
	FileRisky     = "risky_clauses_report.csv"
	FileAnalysis  = "analysis.json"
)

// ReportDir returns where the outputs of one document in one run live.
func ReportDir(base, runID, documentID string) string {
	return filepath.Join(base, runID, documentID)
}

// WriteReport writes every output of report under
// base/<run-id>/<document-id>/ and returns that directory.
func WriteReport(base string, report *types.DocumentReport) (string, error) {
	dir := ReportDir(base, report.RunID, report.Document.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	clauses := make([]types.Clause, len(report.Clauses))
	for i, c := range report.Clauses {
		clauses[i] = c.Clause
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{FileCleanText, func(w io.Writer) error {
			_, err := io.WriteString(w, report.CleanText+"\n")
			return err
		}},
		{FileClauses, func(w io.Writer) error { return WritePreScoring(w, clauses) }},
		{FileSegments, func(w io.Writer) error { return WriteSegments(w, report.Sentences, clauses) }},
		{FileEntities, func(w io.Writer) error { return WriteEntities(w, report.Entities) }},
		{FileScored, func(w io.Writer) error { return WriteScored(w, report.Clauses) }},
		{FileRisky, func(w io.Writer) error { return WriteRisky(w, report.Clauses) }},
		{FileAnalysis, func(w io.Writer) error { return WriteJSON(w, NewAnalysisResponse(report)) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
