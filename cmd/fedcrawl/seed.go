package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fedcrawl/fedcrawl/internal/config"
	"github.com/fedcrawl/fedcrawl/internal/log"
	"github.com/fedcrawl/fedcrawl/internal/model"
	"github.com/fedcrawl/fedcrawl/internal/store"
)

// NewSeedCmd creates the seed command.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <entity-id> [<entity-id>...]",
		Short: "Register seed entities in the crawl archive",
		Long: `Seed registers one or more entities as pending crawl targets in the
archive. The collector picks them up on its next resume.

Entities that already exist in the archive keep their state; seeding is
safe to repeat. Per-entity overrides from the configuration file apply:
skip-listed entities are not seeded and priority boosts are added to
the seed priority.

Examples:
  # Seed two channels
  fedcrawl seed channel-1234 channel-5678

  # Seed with a priority boost
  fedcrawl seed --priority 5 channel-1234`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSeedCmd,
	}

	cmd.Flags().StringP("archive-dir", "a", config.XDGDataDir(),
		"Archive database directory")
	cmd.Flags().Float64P("priority", "p", config.DefaultRefBonus,
		"Initial frontier priority for the seeded entities")

	return cmd
}

// runSeedCmd executes the seed command.
func runSeedCmd(cmd *cobra.Command, args []string) error {
	archiveDir, err := cmd.Flags().GetString("archive-dir")
	if err != nil {
		return err
	}
	priority, err := cmd.Flags().GetFloat64("priority")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	cfg.ArchiveDir = archiveDir
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)
	if err := cfg.LoadOverrides(); err != nil {
		return fmt.Errorf("failed to load configuration file: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	db, err := store.Open(cfg.ArchiveDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	for _, id := range args {
		var ec config.EntityConfig
		if cfg.Entities != nil {
			ec = cfg.Entities.GetEntityConfig(id)
		}
		if ec.Skip {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped entity (config skip list): %s\n", id)
			continue
		}

		entity := model.Entity{
			ID:           model.EntityID(id),
			DiscoveredAt: time.Now(),
			Priority:     priority + ec.PriorityBoost,
			State:        model.StatePending,
		}
		if err := db.UpsertEntity(ctx, &entity); err != nil {
			return fmt.Errorf("failed to seed entity %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded entity: %s\n", id)
	}

	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config-file path flag from the command or
// its parent. Empty means search the default locations.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}
