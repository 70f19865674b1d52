// Package main provides the CLI entrypoint for keytally.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"keytally/src/input"
	"keytally/src/lib"
	"keytally/src/services"
	"keytally/src/storage"
	"keytally/src/tracker"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keytally",
		Short:         "Count key presses and mouse clicks until esc is pressed",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrackerCmd,
	}

	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the persisted input counts",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
}

func runTrackerCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := lib.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	src, err := input.NewTerminalSource()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	console := src.Console()

	var logOut io.Writer = console
	if cfg.LogFile != "" {
		f, err := lib.OpenLogFile(cfg.LogFile)
		if err != nil {
			src.Close()
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := lib.NewLogger(cfg.LogLevel, logOut)

	ctx := cmd.Context()
	trk, err := tracker.New(ctx, cfg, tracker.Options{Console: console, Logger: logger})
	if err != nil {
		src.Close()
		return fmt.Errorf("start tracker: %w", err)
	}

	runErr := trk.Run(ctx, src)
	src.Close()

	// The terminal screen is gone now; repeat the session summary on stdout.
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Total metrics for the current session:")
	fmt.Fprintln(out, services.FormatSummary(trk.Counters().Summarize()))
	return runErr
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := lib.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	repo, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.BootstrapSchema(ctx); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	rows, err := repo.ReportTopCounts(ctx)
	if err != nil {
		return fmt.Errorf("report counts: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), services.FormatCounts(rows))
	return nil
}
