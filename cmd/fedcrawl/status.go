package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fedcrawl/fedcrawl/internal/config"
	"github.com/fedcrawl/fedcrawl/internal/model"
	"github.com/fedcrawl/fedcrawl/internal/report"
	"github.com/fedcrawl/fedcrawl/internal/store"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show crawl archive progress",
		Long: `Status reports the durable progress of the crawl archive: entity
lifecycle counts, fingerprinted item statistics, and account pool health.

Examples:
  # Human-readable summary
  fedcrawl status

  # Machine-readable output
  fedcrawl status --json

  # Write the report to a file as well
  fedcrawl status -o report.json --json`,
		RunE: runStatusCmd,
	}

	cmd.Flags().StringP("archive-dir", "a", config.XDGDataDir(),
		"Archive database directory")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	archiveDir, err := cmd.Flags().GetString("archive-dir")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	outputFile, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	opts := store.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := store.Open(archiveDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open archive (has anything been seeded yet?): %w", err)
	}
	defer db.Close()

	crawlReport, err := buildReport(cmd, db)
	if err != nil {
		return err
	}

	writer, cleanup, err := buildWriter(cmd, asJSON, outputFile)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := writer.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// buildReport assembles a CrawlReport from the archive.
func buildReport(cmd *cobra.Command, db *store.ArchiveDB) (*model.CrawlReport, error) {
	ctx := cmd.Context()

	counts, err := db.EntityCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity counts: %w", err)
	}

	rows, dups, err := db.DuplicateStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprint stats: %w", err)
	}

	accounts, err := db.LoadAccountStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read account states: %w", err)
	}
	suspended := 0
	for _, a := range accounts {
		if a.Suspended {
			suspended++
		}
	}

	return &model.CrawlReport{
		GeneratedAt:          time.Now(),
		ArchivePath:          db.Path(),
		EntitiesPending:      counts[model.StatePending],
		EntitiesInProgress:   counts[model.StateInProgress],
		EntitiesCompleted:    counts[model.StateCompleted],
		EntitiesInaccessible: counts[model.StateInaccessible],
		EntitiesSuspended:    counts[model.StateSuspended],
		UniqueItems:          rows,
		DuplicatesFound:      dups,
		AccountsKnown:        len(accounts),
		AccountsSuspended:    suspended,
	}, nil
}

// buildWriter selects the report format and destinations from flags.
func buildWriter(cmd *cobra.Command, asJSON bool, outputFile string) (report.Writer, func(), error) {
	var writers []report.Writer
	if asJSON {
		writers = append(writers, report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()))
	} else {
		writers = append(writers, report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(getVerboseFlag(cmd))))
	}

	cleanup := func() {}
	if outputFile != "" {
		if dir := filepath.Dir(outputFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create report file: %w", err)
		}
		cleanup = func() { f.Close() }
		if asJSON {
			writers = append(writers, report.NewJSONWriter(f, report.WithPrettyPrint()))
		} else {
			writers = append(writers, report.NewSimpleWriter(f))
		}
	}

	return report.NewMultiWriter(writers...), cleanup, nil
}
