package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/electora/rollscan/internal/ocr"
	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/report"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Sheet pipeline settings
	Pipeline pipeline.Config

	// Engine overrides the tesseract engine built from the pipeline config.
	Engine ocr.Engine

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Margins trimmed off every sheet before the grid split
	Margins Margins

	// ContinueOnError skips sheets that cannot be loaded or processed
	// instead of aborting the whole batch.
	ContinueOnError bool

	// Output settings
	Format     string
	OutputFile string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
}

// DefaultConfig returns a batch configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Pipeline:        pipeline.DefaultConfig(),
		IncludePatterns: []string{"*.jpg", "*.jpeg", "*.png", "*.webp"},
		ContinueOnError: true,
		Format:          "xlsx",
		ShowProgress:    true,
	}
}

// SheetResult holds the outcome of one sheet.
type SheetResult struct {
	Path   string           `json:"file"`
	Result *pipeline.Result `json:"result,omitempty"`
	Err    error            `json:"-"`
}

// Result holds the combined outcome of a batch run. Records carry their
// final serial numbers, continued across sheets in processing order.
type Result struct {
	Sheets   []SheetResult
	Records  []pipeline.Record
	Failed   int
	Duration time.Duration
}

// FormatResults renders the combined records in the specified text format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r, format)
}

// SaveResults writes the batch output. The xlsx format always goes to a
// file (the default workbook name when none is given); text formats go to
// outputFile or stdout.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	if format == "" || format == "xlsx" {
		if outputFile == "" {
			outputFile = report.DefaultWorkbookName
		}
		if err := report.WriteFile(outputFile, r.Records); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Workbook written to %s (%d records)\n", outputFile, len(r.Records))
		}
		return nil
	}

	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(os.Stdout, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}

	skipped := 0
	for _, s := range r.Sheets {
		if s.Err != nil {
			skipped++
		}
	}

	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Sheets: %d (%d skipped)\n", len(r.Sheets), skipped)
	_, _ = fmt.Fprintf(os.Stdout, "  Cards: %d\n", len(r.Records))
	_, _ = fmt.Fprintf(os.Stdout, "  Failed cards: %d\n", r.Failed)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if r.Duration > 0 && len(r.Records) > 0 {
		throughput := float64(len(r.Records)) / r.Duration.Seconds()
		_, _ = fmt.Fprintf(os.Stdout, "  Throughput: %.1f cards/sec\n", throughput)
	}
}
