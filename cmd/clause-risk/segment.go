package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/internal/extract"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <file>",
	Short: "Split a document into clauses without scoring",
	Long: `Segment extracts and cleans a document and splits it into clauses
with the configured strategy. Clauses are printed one per line, or with
--out written as clauses.csv and sentence_clause_segments.csv.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")

		ctx := cmd.Context()
		p, cfg, err := newPipeline(ctx)
		if err != nil {
			return err
		}
		doc, err := extract.Load(args[0], cfg.Output.Owner)
		if err != nil {
			return err
		}
		sentences, clauses, err := p.Segments(ctx, doc)
		if err != nil {
			return err
		}

		if outDir == "" {
			for _, c := range clauses {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", c.SequenceID, c.Text)
			}
			return nil
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", outDir, err)
		}
		clausesPath := filepath.Join(outDir, export.FileClauses)
		segmentsPath := filepath.Join(outDir, export.FileSegments)
		if err := writeCSV(clausesPath, func(f *os.File) error { return export.WritePreScoring(f, clauses) }); err != nil {
			return err
		}
		if err := writeCSV(segmentsPath, func(f *os.File) error { return export.WriteSegments(f, sentences, clauses) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "segmented: %s (%d sentences, %d clauses)\n", doc.Name, len(sentences), len(clauses))
		fmt.Fprintf(cmd.OutOrStdout(), "wrote: %s\nwrote: %s\n", clausesPath, segmentsPath)
		return nil
	},
}

func init() {
	segmentCmd.Flags().String("out", "", "directory to write the clause CSVs to")

	rootCmd.AddCommand(segmentCmd)
}

func writeCSV(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
