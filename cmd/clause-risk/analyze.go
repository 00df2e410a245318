package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/internal/extract"
	"github.com/pdiddy/clause-risk/internal/pipeline"
	"github.com/pdiddy/clause-risk/pkg/types"
)

const fetchTimeout = 60 * time.Second

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Score the clauses of one document",
	Long: `Analyze runs one document through extraction, normalization, clause
segmentation and risk scoring, then writes the clause CSVs, entity list and
analysis JSON to <output>/<run-id>/<document-id>/.

With --url the page at the given address is fetched and its text analyzed
instead of a local file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the analysis response as JSON")
	analyzeCmd.Flags().Bool("store", false, "save the result to the database")
	analyzeCmd.Flags().String("url", "", "analyze the web page at this URL")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	if (url == "") == (len(args) == 0) {
		return fmt.Errorf("provide either a file or --url")
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	persist, _ := cmd.Flags().GetBool("store")

	ctx := cmd.Context()
	p, cfg, err := newPipeline(ctx)
	if err != nil {
		return err
	}

	runID := pipeline.NewRunID()
	var report *types.DocumentReport
	if url != "" {
		report, err = analyzeURL(ctx, p, cfg, runID, url)
	} else {
		var doc types.Document
		doc, err = extract.Load(args[0], cfg.Output.Owner)
		if err != nil {
			return err
		}
		report, err = p.Run(ctx, runID, doc)
	}
	if err != nil {
		return err
	}

	dir, err := export.WriteReport(cfg.Output.Dir, report)
	if err != nil {
		return err
	}
	if persist {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveReport(ctx, report); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return export.WriteJSON(out, export.NewAnalysisResponse(report))
	}
	printReport(out, report, dir)
	return nil
}

func analyzeURL(ctx context.Context, p *pipeline.Pipeline, cfg types.PipelineConfig, runID, url string) (*types.DocumentReport, error) {
	client := &http.Client{Timeout: fetchTimeout}
	text, err := extract.FetchText(ctx, client, url)
	if err != nil {
		return nil, err
	}
	doc := types.Document{
		ID:   extract.Fingerprint(cfg.Output.Owner, "url", url),
		Path: url,
		Name: url,
		Kind: types.KindHTML,
	}
	return p.AnalyzeText(ctx, runID, doc, text)
}

func printReport(w io.Writer, r *types.DocumentReport, dir string) {
	s := r.Summary
	fmt.Fprintf(w, "analyzed: %s (%s, %d clauses)\n", r.Document.Name, r.Method, s.TotalClauses)
	fmt.Fprintf(w, "risky:    %d (%.2f%%)\n", s.RiskyClauses, s.RiskyPercent)
	fmt.Fprintf(w, "rating:   %s (%s preset)\n", s.OverallRating, s.RatingPreset)
	for _, c := range r.RiskyClauses() {
		fmt.Fprintf(w, "  #%d [%s] %s\n", c.SequenceID, c.Severity, export.Reasons(c.Tags))
	}
	fmt.Fprintf(w, "outputs:  %s\n", dir)
}
