// Package main provides studioctl, the operator CLI for the studio document store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studioctl",
		Short:         "Operate the studio document store",
		Long:          "Runs migrations, inspects the audit trail and version history, and manages the write buffer.\nSettings come from the same environment variables as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newAuditCmd(),
		newBufferCmd(),
		newVersionsCmd(),
	)
	return rootCmd
}
