// Package batch processes whole folders of voter sheet scans into one
// combined set of records, with serial numbers continuing across sheets.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/electora/rollscan/internal/common"
	"github.com/electora/rollscan/internal/pipeline"
)

// ProcessBatch discovers sheet images under the given paths and runs every
// one of them through the extraction pipeline. Sheets are processed in
// sorted path order so serial numbers stay stable across runs.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	files, err := discoverSheetFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sheet images: %w", err)
	}

	if len(files) == 0 {
		return nil, errors.New("no sheet images found")
	}

	pipelineConfig := config.Pipeline
	if config.ShowProgress && !config.Quiet {
		cb := pipeline.NewConsoleProgressCallback(os.Stderr, "Processing: ")
		if config.ProgressInterval > 0 {
			cb = cb.WithUpdateInterval(config.ProgressInterval)
		}
		pipelineConfig.Progress = cb
	}

	pl, err := buildPipeline(pipelineConfig, config.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet pipeline: %w", err)
	}

	timer := common.NewTimer()
	result, err := processSheets(ctx, pl, files, config)
	if err != nil {
		return nil, err
	}
	result.Duration = timer.Stop()

	return result, nil
}
