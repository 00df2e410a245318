package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/internal/learn"
	"github.com/pdiddy/clause-risk/internal/pipeline"
	"github.com/pdiddy/clause-risk/internal/risk"
	"github.com/pdiddy/clause-risk/pkg/types"
)

var learnCmd = &cobra.Command{
	Use:   "learn <clauses_scored.csv>...",
	Short: "Grow the rule table from scored clauses",
	Long: `Learn reads scored clause CSVs and collects words that recur in risky
clauses but appear in no rule yet. Words seen at least --min-count times are
added to an auto_<tag>_tokens group and the updated table, with its version
bumped, is written to --out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLearn,
}

func init() {
	learnCmd.Flags().Int("min-count", learn.DefaultMinCount, "minimum occurrences before a token is learned")
	learnCmd.Flags().String("out", "", "rule file to write (default: scoring.rules_file, else rules.yaml)")

	rootCmd.AddCommand(learnCmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
	minCount, _ := cmd.Flags().GetInt("min-count")
	outPath, _ := cmd.Flags().GetString("out")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = cfg.Scoring.RulesFile
	}
	if outPath == "" {
		outPath = "rules.yaml"
	}

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}
	pc, err := newContext(cfg, rules)
	if err != nil {
		return err
	}
	holder := pipeline.NewContextHolder(pc)

	var rows []types.ScoredClause
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		got, err := export.ReadScored(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rows = append(rows, got...)
	}

	next, res, err := learn.Learn(rows, holder.Load().Rules, minCount)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if res.Total() == 0 {
		fmt.Fprintf(out, "no new tokens in %d clause(s); rules unchanged (version %d)\n", len(rows), rules.Version)
		return nil
	}
	if err := holder.SwapRules(next); err != nil {
		return err
	}
	if err := risk.SaveRuleTable(holder.Load().Rules, outPath); err != nil {
		return err
	}

	groups := make([]string, 0, len(res.Added))
	for g := range res.Added {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		fmt.Fprintf(out, "learned: %s += %s\n", g, strings.Join(res.Added[g], ", "))
	}
	fmt.Fprintf(out, "\nLearn summary: %d token(s) added, rules version %d written to %s\n", res.Total(), next.Version, outPath)
	return nil
}
