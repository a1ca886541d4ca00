// Package cmd implements the confine command line: demo tasks run under
// resource limits, plus platform capability inspection.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "confine",
	Short:         "Run built-in tasks in a resource-limited child process",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. An interrupt cancels the active run, which stops
// the worker gracefully before killing it.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
