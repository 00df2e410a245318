// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is a stored document together with its clauses.
type ExportEntry struct {
	DocumentRow `yaml:",inline"`
	Clauses     []ClauseRow `json:"clauses" yaml:"clauses"`
}

// ExportYAML writes the documents matching opts, with their clauses, to w.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the documents matching opts, with their clauses, to w.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]ExportEntry, error) {
	docs, err := s.Documents(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(docs))
	for i, d := range docs {
		clauses, err := s.Clauses(ctx, d.ID, false)
		if err != nil {
			return nil, fmt.Errorf("querying clauses of %s: %w", d.Name, err)
		}
		if clauses == nil {
			clauses = []ClauseRow{}
		}
		entries[i] = ExportEntry{DocumentRow: d, Clauses: clauses}
	}
	return entries, nil
}
