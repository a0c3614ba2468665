package batch

import (
	"github.com/electora/rollscan/internal/ocr"
	"github.com/electora/rollscan/internal/pipeline"
)

// buildPipeline assembles the sheet pipeline from the batch configuration.
func buildPipeline(cfg pipeline.Config, engine ocr.Engine) (*pipeline.Pipeline, error) {
	builder := pipeline.NewBuilder().
		WithGrid(cfg.Grid.Rows, cfg.Grid.Cols).
		WithLanguages(cfg.OCR.Languages...).
		WithPageSegMode(cfg.OCR.PageSegMode).
		WithTessdataPrefix(cfg.OCR.TessdataPrefix).
		WithExtractOptions(cfg.Extract).
		WithFaceOptions(cfg.Face).
		WithFaceCrops(cfg.FaceEnabled).
		WithStartSerial(cfg.StartSerial).
		WithWorkers(cfg.Workers).
		WithProgressCallback(cfg.Progress)

	if engine != nil {
		builder = builder.WithEngine(engine)
	}

	return builder.Build()
}
