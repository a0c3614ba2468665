package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/electora/rollscan/internal/batch"
	"github.com/electora/rollscan/internal/config"
	"github.com/spf13/cobra"
)

const outputFormatText = "text"

// batchCmd represents the batch command for parallel sheet processing.
var batchCmd = &cobra.Command{
	Use:   "batch [paths...]",
	Short: "Process directories of sheet scans into one combined report",
	Long: `Discover sheet images under the given files and directories and run every
one of them through the card extraction pipeline. Serial numbers continue
across sheets in sorted path order, so re-running a batch yields the same
numbering.

Supported formats: JPEG, PNG, BMP, WebP

Examples:
  rollscan batch scans/
  rollscan batch scans/ --recursive --workers 8
  rollscan batch ward-12/ ward-13/ --format csv --output voters.csv
  rollscan batch scans/ --margin-top 40 --margin-bottom 40 --progress`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig maps centralized configuration to batch.Config.
// CLI flags override config file values.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	batchConfig := &batch.Config{}

	// Sheet pipeline settings share the pipeline flags with the sheet command.
	batchConfig.Pipeline = sheetPipelineConfig(cmd)

	// File discovery settings
	batchConfig.Recursive = cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")
	}

	batchConfig.IncludePatterns = cfg.Batch.Include
	if cmd.Flags().Changed("include") {
		batchConfig.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}

	batchConfig.ExcludePatterns = cfg.Batch.Exclude
	if cmd.Flags().Changed("exclude") {
		batchConfig.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	}

	// Page margins trimmed off every sheet
	batchConfig.Margins = batch.Margins{
		Top:    cfg.Batch.Margins.Top,
		Bottom: cfg.Batch.Margins.Bottom,
		Left:   cfg.Batch.Margins.Left,
		Right:  cfg.Batch.Margins.Right,
	}
	if cmd.Flags().Changed("margin-top") {
		batchConfig.Margins.Top, _ = cmd.Flags().GetInt("margin-top")
	}
	if cmd.Flags().Changed("margin-bottom") {
		batchConfig.Margins.Bottom, _ = cmd.Flags().GetInt("margin-bottom")
	}
	if cmd.Flags().Changed("margin-left") {
		batchConfig.Margins.Left, _ = cmd.Flags().GetInt("margin-left")
	}
	if cmd.Flags().Changed("margin-right") {
		batchConfig.Margins.Right, _ = cmd.Flags().GetInt("margin-right")
	}

	// Error handling
	batchConfig.ContinueOnError = cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		batchConfig.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	// Output settings
	batchConfig.Format = cfg.Output.Format
	if cmd.Flags().Changed("format") {
		batchConfig.Format, _ = cmd.Flags().GetString("format")
	}

	batchConfig.OutputFile = cfg.Output.File
	if cmd.Flags().Changed("output") {
		batchConfig.OutputFile, _ = cmd.Flags().GetString("output")
	}

	// Progress settings - these are CLI-only
	batchConfig.ShowProgress, _ = cmd.Flags().GetBool("progress")
	batchConfig.Quiet, _ = cmd.Flags().GetBool("quiet")
	batchConfig.ProgressInterval, _ = cmd.Flags().GetDuration("progress-interval")

	return batchConfig
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	batchConfig := configToBatchConfig(cfg, cmd)

	// Validate output format
	validFormats := []string{outputFormatXLSX, outputFormatJSON, outputFormatCSV, outputFormatText}
	isValidFormat := false
	for _, f := range validFormats {
		if batchConfig.Format == f {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			batchConfig.Format, strings.Join(validFormats, ", "))
	}

	// Context() is nil unless the command ran through Execute.
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !batchConfig.Quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Processing %d path(s)...\n", len(args))
	}

	result, err := batch.ProcessBatch(ctx, args, batchConfig)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if err := result.SaveResults(batchConfig.Format, batchConfig.OutputFile, batchConfig.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		result.PrintStats(batchConfig.Quiet)
	}

	return nil
}

// GetBatchCommand returns the batch command for testing purposes.
func GetBatchCommand() *cobra.Command {
	return batchCmd
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Grid flags (shared with the sheet command)
	batchCmd.Flags().Int("rows", 10, "number of card rows per sheet")
	batchCmd.Flags().Int("cols", 3, "number of card columns per sheet")

	// OCR flags
	batchCmd.Flags().StringSlice("languages", []string{"mar", "eng"}, "tesseract languages, in priority order")
	batchCmd.Flags().Int("psm", 6, "tesseract page segmentation mode")
	batchCmd.Flags().String("tessdata", "", "override tessdata directory")

	// Processing flags
	batchCmd.Flags().IntP("workers", "w", 0,
		fmt.Sprintf("number of parallel card workers (default: %d)", runtime.NumCPU()))
	batchCmd.Flags().Int("start-serial", 1, "serial number assigned to the first card")
	batchCmd.Flags().Bool("no-faces", false, "skip face photo cropping")

	// File discovery flags
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include",
		[]string{"*.jpg", "*.jpeg", "*.png", "*.webp"}, "file patterns to include")
	batchCmd.Flags().StringSlice("exclude", []string{}, "file patterns to exclude")

	// Margin flags (pixels trimmed off every sheet before the grid split)
	batchCmd.Flags().Int("margin-top", 0, "pixels trimmed from the top of every sheet")
	batchCmd.Flags().Int("margin-bottom", 0, "pixels trimmed from the bottom of every sheet")
	batchCmd.Flags().Int("margin-left", 0, "pixels trimmed from the left of every sheet")
	batchCmd.Flags().Int("margin-right", 0, "pixels trimmed from the right of every sheet")

	// Error handling flags
	batchCmd.Flags().Bool("continue-on-error", true, "skip sheets that fail instead of aborting")

	// Output flags
	batchCmd.Flags().StringP("format", "f", "xlsx", "output format: xlsx, json, csv, text")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: voter_data.xlsx for xlsx, stdout otherwise)")

	// Progress and monitoring flags
	batchCmd.Flags().Bool("progress", false, "show progress bar")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
	batchCmd.Flags().Bool("stats", false, "show processing statistics")
	batchCmd.Flags().Duration("progress-interval", 500*time.Millisecond, "progress update interval")
}
