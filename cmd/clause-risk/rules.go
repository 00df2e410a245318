package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clause-risk/internal/risk"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the risk rule table",
	Long: `Rules validates and prints the rule table used for scoring: the embedded
table, the one named by scoring.rules_file, or a file given as argument.`,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a rule table and print what it defines",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, source, err := rulesFromArgs(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rules ok: %s (version %d)\n", source, t.Version)
		fmt.Fprintf(out, "  tags:         %d\n", len(t.Tags))
		fmt.Fprintf(out, "  rules:        %d\n", len(t.Rules))
		fmt.Fprintf(out, "  token groups: %d\n", len(t.TokenGroups))
		fmt.Fprintf(out, "  mitigations:  %d (factor %.2f)\n", len(t.Mitigation.Phrases), t.Mitigation.Factor)
		fmt.Fprintf(out, "  presets:      %s\n", strings.Join(t.PresetNames(), ", "))
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print a rule table as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := rulesFromArgs(args)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encoding rule table: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesShowCmd)

	rootCmd.AddCommand(rulesCmd)
}

// rulesFromArgs loads the table named in args, else the configured one.
func rulesFromArgs(args []string) (*risk.RuleTable, string, error) {
	if len(args) == 1 {
		t, err := risk.LoadRuleTable(args[0])
		return t, args[0], err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	source := cfg.Scoring.RulesFile
	if source == "" {
		source = "embedded rules"
	}
	t, err := loadRules(cfg)
	return t, source, err
}
