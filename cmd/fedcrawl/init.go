package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fedcrawl/fedcrawl/internal/config"
)

//go:embed templates/fedcrawl.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new fedcrawl configuration file",
		Long: `Initialize creates a new .fedcrawl configuration file in the current directory.

The generated file includes:
- Commented examples for per-entity priority boosts and skip lists
- Documentation for all available options

Examples:
  # Create .fedcrawl in current directory
  fedcrawl init

  # Create config file at a specific path
  fedcrawl init -o myconfig.yaml

  # Force overwrite existing file
  fedcrawl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/fedcrawl.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to configure per-entity settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Priority boosts for known targets")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Skip lists for entities to never crawl")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Per-entity depth budgets")

	return nil
}
