// Package pipeline wires sheet segmentation, recognition, field extraction
// and face cropping into a single card-by-card processing flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/electora/rollscan/internal/common"
	"github.com/electora/rollscan/internal/extract"
	"github.com/electora/rollscan/internal/face"
	"github.com/electora/rollscan/internal/ocr"
	"github.com/electora/rollscan/internal/ocr/tesseract"
	"github.com/electora/rollscan/internal/segment"
)

// Config holds configuration for the sheet pipeline and its components.
type Config struct {
	Grid        segment.Grid     `mapstructure:"grid" yaml:"grid" json:"grid"`
	OCR         ocr.Config       `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Extract     extract.Options  `mapstructure:"extract" yaml:"extract" json:"extract"`
	Face        face.Options     `mapstructure:"face" yaml:"face" json:"face"`
	FaceEnabled bool             `mapstructure:"face_enabled" yaml:"face_enabled" json:"face_enabled"`
	StartSerial int              `mapstructure:"start_serial" yaml:"start_serial" json:"start_serial"`
	Workers     int              `mapstructure:"workers" yaml:"workers" json:"workers"`
	Progress    ProgressCallback `mapstructure:"-" yaml:"-" json:"-"`
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Grid:        segment.DefaultGrid(),
		OCR:         ocr.DefaultConfig(),
		Extract:     extract.DefaultOptions(),
		Face:        face.DefaultOptions(),
		FaceEnabled: true,
		StartSerial: 1,
		Workers:     runtime.NumCPU(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg    Config
	engine ocr.Engine
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithGrid sets the sheet grid dimensions.
func (b *Builder) WithGrid(rows, cols int) *Builder {
	b.cfg.Grid = segment.Grid{Rows: rows, Cols: cols}
	return b
}

// WithEngine injects a recognition engine, replacing the default tesseract
// engine built from the OCR config.
func (b *Builder) WithEngine(engine ocr.Engine) *Builder {
	b.engine = engine
	return b
}

// WithLanguages sets the recognition languages.
func (b *Builder) WithLanguages(langs ...string) *Builder {
	if len(langs) > 0 {
		b.cfg.OCR.Languages = langs
	}
	return b
}

// WithPageSegMode sets the engine page segmentation mode.
func (b *Builder) WithPageSegMode(psm int) *Builder {
	b.cfg.OCR.PageSegMode = psm
	return b
}

// WithTessdataPrefix sets the engine language data directory.
func (b *Builder) WithTessdataPrefix(dir string) *Builder {
	if dir != "" {
		b.cfg.OCR.TessdataPrefix = dir
	}
	return b
}

// WithExtractOptions sets the card enhancement options.
func (b *Builder) WithExtractOptions(opts extract.Options) *Builder {
	b.cfg.Extract = opts
	return b
}

// WithFaceOptions sets the face crop options.
func (b *Builder) WithFaceOptions(opts face.Options) *Builder {
	b.cfg.Face = opts
	return b
}

// WithFaceCrops enables or disables face cropping.
func (b *Builder) WithFaceCrops(enabled bool) *Builder {
	b.cfg.FaceEnabled = enabled
	return b
}

// WithStartSerial sets the serial number assigned to the first card.
func (b *Builder) WithStartSerial(n int) *Builder {
	if n > 0 {
		b.cfg.StartSerial = n
	}
	return b
}

// WithWorkers sets the number of parallel workers for card processing.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Workers = n
	}
	return b
}

// WithProgressCallback sets the progress callback for sheet processing.
func (b *Builder) WithProgressCallback(cb ProgressCallback) *Builder {
	b.cfg.Progress = cb
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if !b.cfg.Grid.Valid() {
		return &segment.InvalidGridError{Rows: b.cfg.Grid.Rows, Cols: b.cfg.Grid.Cols}
	}
	if b.engine == nil {
		if err := b.cfg.OCR.Validate(); err != nil {
			return fmt.Errorf("ocr config: %w", err)
		}
	}
	if err := b.cfg.Extract.Validate(); err != nil {
		return fmt.Errorf("extract options: %w", err)
	}
	if b.cfg.FaceEnabled {
		if err := b.cfg.Face.Validate(); err != nil {
			return fmt.Errorf("face options: %w", err)
		}
	}
	if b.cfg.StartSerial < 1 {
		return fmt.Errorf("start serial must be at least 1, got %d", b.cfg.StartSerial)
	}
	return nil
}

// Pipeline wires together segmentation, extraction and face cropping.
type Pipeline struct {
	cfg       Config
	engine    ocr.Engine
	extractor *extract.Extractor
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	engine := b.engine
	if engine == nil {
		var err error
		engine, err = tesseract.New(b.cfg.OCR)
		if err != nil {
			return nil, fmt.Errorf("init recognition engine: %w", err)
		}
	}

	extractor, err := extract.NewExtractor(engine, b.cfg.Extract)
	if err != nil {
		return nil, err
	}

	return &Pipeline{cfg: b.cfg, engine: engine, extractor: extractor}, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Engine returns the recognition engine the pipeline was built with.
func (p *Pipeline) Engine() ocr.Engine { return p.engine }

// ProcessSheet splits the sheet into cards and extracts every one of them.
// The grid is validated before any pixel work. Cards whose recognition
// fails become placeholder records; the sheet as a whole only fails on
// invalid input or context cancellation.
func (p *Pipeline) ProcessSheet(ctx context.Context, sheet image.Image) (*Result, error) {
	if p == nil || p.extractor == nil {
		return nil, errors.New("pipeline not initialized")
	}

	timer := common.NewTimer()

	cards, err := segment.Split(sheet, p.cfg.Grid)
	if err != nil {
		return nil, err
	}

	cb := p.cfg.Progress
	if cb == nil {
		cb = NoOpProgressCallback{}
	}
	cb.OnStart(len(cards))
	defer cb.OnComplete()

	var records []Record
	if len(cards) == 1 || p.workerCount() == 1 {
		records, err = p.processCardsSequential(ctx, cards, cb)
	} else {
		records, err = p.processCardsParallel(ctx, cards, cb)
	}
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range records {
		if r.Failed {
			failed++
		}
	}

	bounds := sheet.Bounds()
	return &Result{
		Grid:        p.cfg.Grid,
		SheetWidth:  bounds.Dx(),
		SheetHeight: bounds.Dy(),
		Records:     records,
		Failed:      failed,
		Duration:    timer.Stop(),
	}, nil
}

func (p *Pipeline) workerCount() int {
	if p.cfg.Workers <= 0 {
		return runtime.NumCPU()
	}
	return p.cfg.Workers
}

// processCard extracts one card. Recognition failure does not fail the
// card: the record keeps its position and serial with placeholder fields
// and Failed set. The returned error reports that failure to the caller
// for progress accounting; context cancellation surfaces through it too.
func (p *Pipeline) processCard(ctx context.Context, card segment.Card) (Record, error) {
	img := card.Image()

	rec := Record{
		Serial: p.cfg.StartSerial + card.Index,
		Row:    card.Row,
		Col:    card.Col,
	}

	fields, err := p.extractor.Extract(ctx, img)
	rec.Fields = fields
	if err != nil {
		rec.Failed = true
	}

	if p.cfg.FaceEnabled {
		if crop, cropErr := face.Crop(img, p.cfg.Face); cropErr == nil {
			rec.Face = crop
		}
	}
	return rec, err
}
