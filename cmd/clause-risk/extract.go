package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/internal/extract"
	"github.com/pdiddy/clause-risk/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the raw text of a document",
	Long: `Extract reads the text layer of a PDF, falling back to OCR for pages
without one, or recognizes an image, and prints the raw text before any
cleaning. With --json the extraction method, page count and failed pages are
included.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		doc, err := extract.Load(args[0], cfg.Output.Owner)
		if err != nil {
			return err
		}

		raw := newExtractor(cmd.Context(), cfg).Extract(cmd.Context(), doc)
		if asJSON {
			return export.WriteJSON(cmd.OutOrStdout(), raw)
		}
		if raw.Empty() {
			for _, d := range raw.Diagnostics {
				fmt.Fprintln(cmd.ErrOrStderr(), d)
			}
			return fmt.Errorf("%s: %w", doc.Name, pipeline.ErrNothingToProcess)
		}
		fmt.Fprintln(cmd.OutOrStdout(), raw.Text)
		return nil
	},
}

func init() {
	extractCmd.Flags().Bool("json", false, "print the extraction result as JSON")

	rootCmd.AddCommand(extractCmd)
}
