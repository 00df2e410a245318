package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-risk/internal/batch"
	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Analyze every new document in a folder",
	Long: `Batch processes the documents in a folder that are not yet in its
processed/ directory, in name order. Loose PNG, JPEG and GIF images are
combined into one PDF first. Each handled source is moved to processed/.

Only one batch runs per folder at a time; a second run waits in-process or
fails if another process holds the folder's lock file.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Bool("store", false, "save results to the database")

	rootCmd.AddCommand(batchCmd)
}

// newRunner assembles a batch runner from config. The returned func
// releases the store when one was opened.
func newRunner(cmd *cobra.Command) (*batch.Runner, types.PipelineConfig, func(), error) {
	ctx := cmd.Context()
	p, cfg, err := newPipeline(ctx)
	if err != nil {
		return nil, cfg, nil, err
	}

	sinks := []batch.Sink{func(_ context.Context, r *types.DocumentReport) error {
		_, err := export.WriteReport(cfg.Output.Dir, r)
		return err
	}}
	closer := func() {}

	persist, _ := cmd.Flags().GetBool("store")
	if persist {
		st, err := openStore(cfg)
		if err != nil {
			return nil, cfg, nil, err
		}
		sinks = append(sinks, st.SaveReport)
		closer = func() { st.Close() }
	}

	runner := batch.New(p, batch.Options{
		Owner:        cfg.Output.Owner,
		ProcessedDir: cfg.Output.ProcessedDir,
		Rate:         cfg.Batch.Rate,
	}, sinks...)
	return runner, cfg, closer, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	runner, _, closer, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer closer()

	result, err := runner.Run(cmd.Context(), args[0], cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed", result.Failed)
	}
	return nil
}
