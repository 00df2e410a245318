package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/pkg/types"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <clauses_scored.csv>",
	Short: "Grade a previously scored clause CSV",
	Long: `Summary rebuilds the document summary (risky count, percentage, tag
breakdown and letter grade) from a clauses_scored.csv file. The grade uses
--preset, or the configured rating preset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset, _ := cmd.Flags().GetString("preset")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rules, err := loadRules(cfg)
		if err != nil {
			return err
		}
		if preset == "" {
			preset = cfg.Scoring.RatingPreset
		}
		name, thresholds, err := rules.Preset(preset, cfg.Scoring.Regime)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		rows, err := export.ReadScored(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		s := risk.Summarize(rows, name, thresholds)
		if asJSON {
			return export.WriteJSON(cmd.OutOrStdout(), s)
		}
		printSummary(cmd, s)
		return nil
	},
}

func init() {
	summaryCmd.Flags().String("preset", "", "rating preset: strict or standard")
	summaryCmd.Flags().Bool("json", false, "print the summary as JSON")

	rootCmd.AddCommand(summaryCmd)
}

func printSummary(cmd *cobra.Command, s types.DocumentRiskSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "clauses: %d\n", s.TotalClauses)
	fmt.Fprintf(out, "risky:   %d (%.2f%%)\n", s.RiskyClauses, s.RiskyPercent)
	fmt.Fprintf(out, "rating:  %s (%s preset)\n", s.OverallRating, s.RatingPreset)

	tags := make([]types.RiskTag, 0, len(s.RiskBreakdown))
	for tag := range s.RiskBreakdown {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	for _, tag := range tags {
		fmt.Fprintf(out, "  %-24s %d\n", tag, s.RiskBreakdown[tag])
	}
}
