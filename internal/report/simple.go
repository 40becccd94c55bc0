package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fedcrawl/fedcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report as formatted text.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Archive: %s\n", report.ArchivePath)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "Entities (%d total):\n", report.TotalEntities())
	fmt.Fprintf(&b, "  pending:       %d\n", report.EntitiesPending)
	fmt.Fprintf(&b, "  in progress:   %d\n", report.EntitiesInProgress)
	fmt.Fprintf(&b, "  completed:     %d\n", report.EntitiesCompleted)
	fmt.Fprintf(&b, "  inaccessible:  %d\n", report.EntitiesInaccessible)
	fmt.Fprintf(&b, "  suspended:     %d\n", report.EntitiesSuspended)

	fmt.Fprintf(&b, "\nContent:\n")
	fmt.Fprintf(&b, "  unique items:     %d\n", report.UniqueItems)
	fmt.Fprintf(&b, "  duplicates found: %d\n", report.DuplicatesFound)
	if w.verbose {
		fmt.Fprintf(&b, "  dedup ratio:      %.1f%%\n", report.DeduplicationRatio()*100)
	}

	fmt.Fprintf(&b, "\nAccounts:\n")
	fmt.Fprintf(&b, "  known:     %d\n", report.AccountsKnown)
	fmt.Fprintf(&b, "  suspended: %d\n", report.AccountsSuspended)

	return w.output.Write([]byte(b.String()))
}
