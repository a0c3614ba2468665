// Package ocr defines the recognition engine boundary. The engine is an
// external service; everything behind Recognize (models, training data,
// accuracy) is owned by the engine, not by this module.
package ocr

import (
	"context"
	"fmt"
	"image"
)

// Engine turns a card image into raw recognized text.
//
// Implementations must be safe for concurrent use; the pipeline calls
// Recognize from multiple workers at once.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Config holds engine invocation settings.
type Config struct {
	// Languages are recognition hints passed to the engine, in priority
	// order. Voter cards mix Devanagari and Latin text.
	Languages []string `mapstructure:"languages" yaml:"languages" json:"languages"`

	// PageSegMode selects the engine's page segmentation strategy.
	// Mode 6 treats the card as a single uniform block of text.
	PageSegMode int `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`

	// TessdataPrefix overrides the engine's language data directory.
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// DefaultConfig returns engine settings for Marathi voter cards.
func DefaultConfig() Config {
	return Config{
		Languages:   []string{"mar", "eng"},
		PageSegMode: 6,
	}
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("ocr config: at least one language required")
	}
	for _, l := range c.Languages {
		if l == "" {
			return fmt.Errorf("ocr config: empty language entry")
		}
	}
	if c.PageSegMode < 0 || c.PageSegMode > 13 {
		return fmt.Errorf("ocr config: page_seg_mode %d out of range [0,13]", c.PageSegMode)
	}
	return nil
}

// EngineError reports a failed engine invocation. It is never used for
// recognized text that merely fails to parse into fields.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("ocr engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
