// Package main provides the entry point for the fedcrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fedcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fedcrawl",
		Short: "Archive manager for federated-network crawls",
		Long: `fedcrawl manages the durable archive behind a federated-network crawl:
the discovered entity frontier, per-entity fetch checkpoints, content
fingerprints, and account pool health.

The crawl engine itself runs embedded in a collector process. This tool
seeds entities into the archive, reports progress, and generates the
configuration file the collector reads.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to the configuration file (default: .fedcrawl in cwd or home)")

	// Add subcommands
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
