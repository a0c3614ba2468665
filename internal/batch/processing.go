package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/utils"
)

// loadSheetImage loads a sheet image and checks it against size constraints.
func loadSheetImage(path string) (image.Image, utils.ImageMetadata, error) {
	if !utils.IsSupportedImage(path) {
		return nil, utils.ImageMetadata{}, fmt.Errorf("unsupported image format: %s", path)
	}

	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, utils.ImageMetadata{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := utils.ValidateImageConstraints(img, utils.DefaultImageConstraints()); err != nil {
		slog.Warn("sheet does not meet size constraints", "file", path, "error", err)
	}

	return img, meta, nil
}

// processSingleSheet loads one sheet, trims its margins and runs it through
// the pipeline.
func processSingleSheet(ctx context.Context, pl *pipeline.Pipeline, path string, margins Margins) (*pipeline.Result, error) {
	img, _, err := loadSheetImage(path)
	if err != nil {
		return nil, err
	}

	img, err = ApplyMargins(img, margins)
	if err != nil {
		return nil, fmt.Errorf("failed to apply margins to %s: %w", path, err)
	}

	res, err := pl.ProcessSheet(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", path, err)
	}

	slog.Debug("sheet processed", "file", path, "cards", len(res.Records), "failed", res.Failed)
	return res, nil
}

// processSheets runs every sheet through the pipeline in order, continuing
// serial numbers from one sheet to the next.
func processSheets(ctx context.Context, pl *pipeline.Pipeline, files []string, config *Config) (*Result, error) {
	result := &Result{Sheets: make([]SheetResult, 0, len(files))}

	serialOffset := 0
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Info("processing sheet", "file", path, "sheet", i+1, "total", len(files))

		sheetRes, err := processSingleSheet(ctx, pl, path, config.Margins)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if !config.ContinueOnError {
				return nil, err
			}
			slog.Warn("skipping sheet", "file", path, "error", err)
			result.Sheets = append(result.Sheets, SheetResult{Path: path, Err: err})
			continue
		}

		for j := range sheetRes.Records {
			sheetRes.Records[j].Serial += serialOffset
		}
		serialOffset += len(sheetRes.Records)

		result.Sheets = append(result.Sheets, SheetResult{Path: path, Result: sheetRes})
		result.Records = append(result.Records, sheetRes.Records...)
		result.Failed += sheetRes.Failed
	}

	return result, nil
}
