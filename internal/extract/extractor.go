package extract

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/electora/rollscan/internal/ocr"
)

var errNilImage = errors.New("nil image")

// Extractor turns a single card image into structured voter fields.
type Extractor struct {
	engine ocr.Engine
	opts   Options
}

// NewExtractor builds an extractor around a recognition engine.
func NewExtractor(engine ocr.Engine, opts Options) (*Extractor, error) {
	if engine == nil {
		return nil, errors.New("extract: nil recognition engine")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("extract: invalid options: %w", err)
	}
	return &Extractor{engine: engine, opts: opts}, nil
}

// Extract enhances the card image, runs recognition and parses the result.
// Parsing never fails; errors come from a nil card image or the engine
// invocation, and even then the returned Fields is a valid placeholder with
// unknown gender so callers can keep a record for the card.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (Fields, error) {
	prepared, err := Preprocess(img, e.opts)
	if err != nil {
		return Fields{Gender: GenderUnknown}, fmt.Errorf("prepare card: %w", err)
	}
	text, err := e.engine.Recognize(ctx, prepared)
	if err != nil {
		return Fields{Gender: GenderUnknown}, fmt.Errorf("recognize card: %w", err)
	}
	return Parse(text), nil
}
