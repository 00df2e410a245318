package main

import (
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <folder>",
	Short: "Analyze documents as they arrive in a folder",
	Long: `Watch runs a batch over the folder, then again each time new files
settle in it. Events are debounced (batch.debounce, default 2s) so a file
copied in several writes starts one run. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, cfg, closer, err := newRunner(cmd)
		if err != nil {
			return err
		}
		defer closer()
		return runner.Watch(cmd.Context(), args[0], cfg.Batch.Debounce, cmd.OutOrStdout())
	},
}

func init() {
	watchCmd.Flags().Bool("store", false, "save results to the database")

	rootCmd.AddCommand(watchCmd)
}
