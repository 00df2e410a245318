// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the clause-risk CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/clause-risk/internal/logging"
	"github.com/pdiddy/clause-risk/internal/pipeline"
	"github.com/pdiddy/clause-risk/internal/risk"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes returned by main.
const (
	exitError         = 1
	exitConfiguration = 2
	exitNothing       = 3
)

// rootCmd is the base command for the clause-risk CLI.
var rootCmd = &cobra.Command{
	Use:   "clause-risk",
	Short: "Score contract clauses for risk",
	Long: `clause-risk reads contracts, terms of service and policies (PDF, scanned
images, text or HTML), splits them into clauses and scores every clause
against a versioned rule table. Each document gets per-clause CSV reports,
a JSON summary and a letter grade.

Single documents go through analyze; folders go through batch or watch.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logging.Setup(verbose, os.Stderr)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./clause-risk.yaml or ~/.config/clause-risk/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("clause-risk")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "clause-risk"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, risk.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, pipeline.ErrNothingToProcess):
		return exitNothing
	default:
		return exitError
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}
