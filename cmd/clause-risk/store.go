package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/internal/store"
	"github.com/pdiddy/clause-risk/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query and export stored analysis results",
	Long: `Store reads the SQLite database that analyze --store and batch --store
write to. Documents can be listed by run or rating, a document's clauses
shown, and everything exported as YAML or JSON.`,
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := listOptions(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := storeFromConfig()
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.Documents(cmd.Context(), opts)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if asJSON {
			if docs == nil {
				docs = []store.DocumentRow{}
			}
			return export.WriteJSON(out, docs)
		}
		for _, d := range docs {
			fmt.Fprintf(out, "%s  %s  %-3s %3d/%-4d %6.2f%%  %s\n",
				shortID(d.ID), d.CreatedAt.Format("2006-01-02 15:04"), d.OverallRating,
				d.RiskyClauses, d.TotalClauses, d.RiskyPercent, d.Name)
		}
		fmt.Fprintf(out, "%d document(s)\n", len(docs))
		return nil
	},
}

var storeClausesCmd = &cobra.Command{
	Use:   "clauses <document-id>",
	Short: "Show the clauses of one stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		riskyOnly, _ := cmd.Flags().GetBool("risky")
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := storeFromConfig()
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.Clauses(cmd.Context(), args[0], riskyOnly)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if asJSON {
			if rows == nil {
				rows = []store.ClauseRow{}
			}
			return export.WriteJSON(out, rows)
		}
		for _, c := range rows {
			score := "-"
			if c.ModelRiskScore != nil {
				score = strconv.Itoa(*c.ModelRiskScore)
			}
			fmt.Fprintf(out, "%4d  %-5s %2s  %-6s %s\n", c.ClauseNumber, c.ModelIsRisky, score, c.Severity, c.Text)
			if c.ModelRiskReason != "" {
				fmt.Fprintf(out, "      reasons: %s\n", c.ModelRiskReason)
			}
		}
		return nil
	},
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored documents and clauses as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := listOptions(cmd)
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		if format != "yaml" && format != "json" {
			return fmt.Errorf("unknown export format %q: want yaml or json", format)
		}

		st, err := storeFromConfig()
		if err != nil {
			return err
		}
		defer st.Close()

		var w io.Writer = cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			defer f.Close()
			w = f
		}

		if format == "json" {
			err = st.ExportJSON(cmd.Context(), w, opts)
		} else {
			err = st.ExportYAML(cmd.Context(), w, opts)
		}
		if err != nil {
			return err
		}
		if outPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "exported: %s\n", outPath)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{storeListCmd, storeExportCmd} {
		c.Flags().String("run", "", "only documents from this run ID")
		c.Flags().String("rating", "", "only documents with this rating (A-D)")
	}
	storeListCmd.Flags().Bool("json", false, "output as JSON")
	storeClausesCmd.Flags().Bool("risky", false, "only risky clauses")
	storeClausesCmd.Flags().Bool("json", false, "output as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("out", "", "write to this file instead of stdout")

	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeClausesCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}

func listOptions(cmd *cobra.Command) store.ListOptions {
	runID, _ := cmd.Flags().GetString("run")
	rating, _ := cmd.Flags().GetString("rating")
	return store.ListOptions{RunID: runID, Rating: types.Rating(rating)}
}

func storeFromConfig() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
