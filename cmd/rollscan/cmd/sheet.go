package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/electora/rollscan/internal/batch"
	"github.com/electora/rollscan/internal/common"
	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/utils"
	"github.com/spf13/cobra"
)

const (
	outputFormatXLSX = "xlsx"
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
)

// sheetCmd represents the sheet command.
var sheetCmd = &cobra.Command{
	Use:   "sheet [files...]",
	Short: "Extract voter card data from sheet scans",
	Long: `Process one or more scanned electoral roll sheets. Each sheet is split
into its grid of voter cards, every card is OCRed, and the parsed voter
fields are written as a combined report. Serial numbers continue across
sheets in argument order.

Supported formats: JPEG, PNG, BMP, WebP

Examples:
  rollscan sheet scan.png
  rollscan sheet page1.png page2.png --format json
  rollscan sheet scan.jpg --rows 10 --cols 3 --output voters.xlsx`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runSheetCommand,
}

// sheetPipelineConfig maps centralized configuration to a pipeline config,
// applying CLI flag overrides.
func sheetPipelineConfig(cmd *cobra.Command) pipeline.Config {
	cfg := GetConfig()
	pCfg := cfg.ToPipelineConfig()

	if cmd.Flags().Changed("rows") {
		pCfg.Grid.Rows, _ = cmd.Flags().GetInt("rows")
	}
	if cmd.Flags().Changed("cols") {
		pCfg.Grid.Cols, _ = cmd.Flags().GetInt("cols")
	}
	if cmd.Flags().Changed("workers") {
		pCfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("start-serial") {
		pCfg.StartSerial, _ = cmd.Flags().GetInt("start-serial")
	}
	if cmd.Flags().Changed("languages") {
		pCfg.OCR.Languages, _ = cmd.Flags().GetStringSlice("languages")
	}
	if cmd.Flags().Changed("psm") {
		pCfg.OCR.PageSegMode, _ = cmd.Flags().GetInt("psm")
	}
	if cmd.Flags().Changed("tessdata") {
		pCfg.OCR.TessdataPrefix, _ = cmd.Flags().GetString("tessdata")
	}
	if cmd.Flags().Changed("no-faces") {
		noFaces, _ := cmd.Flags().GetBool("no-faces")
		pCfg.FaceEnabled = !noFaces
	}

	return pCfg
}

// buildExtractionPipeline assembles the card extraction pipeline.
func buildExtractionPipeline(cfg pipeline.Config) (*pipeline.Pipeline, error) {
	return pipeline.NewBuilder().
		WithGrid(cfg.Grid.Rows, cfg.Grid.Cols).
		WithLanguages(cfg.OCR.Languages...).
		WithPageSegMode(cfg.OCR.PageSegMode).
		WithTessdataPrefix(cfg.OCR.TessdataPrefix).
		WithExtractOptions(cfg.Extract).
		WithFaceOptions(cfg.Face).
		WithFaceCrops(cfg.FaceEnabled).
		WithStartSerial(cfg.StartSerial).
		WithWorkers(cfg.Workers).
		WithProgressCallback(cfg.Progress).
		Build()
}

func runSheetCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}

	// Validate output format
	validFormats := []string{outputFormatXLSX, outputFormatJSON, outputFormatCSV}
	isValidFormat := false
	for _, f := range validFormats {
		if format == f {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
	}

	pCfg := sheetPipelineConfig(cmd)
	if pCfg.Grid.Rows < 1 || pCfg.Grid.Cols < 1 {
		return fmt.Errorf("invalid grid: %dx%d (rows and cols must be positive)", pCfg.Grid.Rows, pCfg.Grid.Cols)
	}

	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		pCfg.Progress = pipeline.NewConsoleProgressCallback(os.Stderr, "Processing: ")
	}

	pl, err := buildExtractionPipeline(pCfg)
	if err != nil {
		return fmt.Errorf("failed to build extraction pipeline: %w", err)
	}

	// Context() is nil unless the command ran through Execute.
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Processing %d sheet(s)\n", len(args)); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	timer := common.NewTimer()
	result := &batch.Result{Sheets: make([]batch.SheetResult, 0, len(args))}

	serialOffset := 0
	for _, path := range args {
		if !utils.IsSupportedImage(path) {
			return fmt.Errorf("unsupported image format: %s", path)
		}
		img, _, err := utils.LoadImage(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		if err := utils.ValidateImageConstraints(img, utils.DefaultImageConstraints()); err != nil {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "warning: %s: %v\n", path, err); err != nil {
				return fmt.Errorf("failed to write warning to stdout: %w", err)
			}
		}

		res, err := pl.ProcessSheet(ctx, img)
		if err != nil {
			return fmt.Errorf("extraction failed for %s: %w", path, err)
		}

		for j := range res.Records {
			res.Records[j].Serial += serialOffset
		}
		serialOffset += len(res.Records)

		result.Sheets = append(result.Sheets, batch.SheetResult{Path: path, Result: res})
		result.Records = append(result.Records, res.Records...)
		result.Failed += res.Failed
	}
	result.Duration = timer.Stop()

	if err := result.SaveResults(format, outputFile, false); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		result.PrintStats(false)
	}

	return nil
}

// GetSheetCommand returns the sheet command for testing purposes.
func GetSheetCommand() *cobra.Command {
	return sheetCmd
}

func init() {
	rootCmd.AddCommand(sheetCmd)

	// Grid flags
	sheetCmd.Flags().Int("rows", 10, "number of card rows per sheet")
	sheetCmd.Flags().Int("cols", 3, "number of card columns per sheet")

	// OCR flags
	sheetCmd.Flags().StringSlice("languages", []string{"mar", "eng"}, "tesseract languages, in priority order")
	sheetCmd.Flags().Int("psm", 6, "tesseract page segmentation mode")
	sheetCmd.Flags().String("tessdata", "", "override tessdata directory")

	// Processing flags
	sheetCmd.Flags().IntP("workers", "w", 0, "number of parallel card workers (default: number of CPUs)")
	sheetCmd.Flags().Int("start-serial", 1, "serial number assigned to the first card")
	sheetCmd.Flags().Bool("no-faces", false, "skip face photo cropping")

	// Output flags
	sheetCmd.Flags().StringP("format", "f", "xlsx", "output format: xlsx, json, csv")
	sheetCmd.Flags().StringP("output", "o", "", "output file (default: voter_data.xlsx for xlsx, stdout otherwise)")

	// Progress and monitoring flags
	sheetCmd.Flags().Bool("progress", false, "show progress bar")
	sheetCmd.Flags().Bool("stats", false, "show processing statistics")
}
