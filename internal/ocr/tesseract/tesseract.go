// Package tesseract provides the gosseract-backed OCR engine.
package tesseract

import (
	"context"
	"errors"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/electora/rollscan/internal/mempool"
	"github.com/electora/rollscan/internal/ocr"
)

var errNilImage = errors.New("nil image")

// Engine implements ocr.Engine using the gosseract client. A fresh client is
// created per call; gosseract clients are not safe for concurrent use.
type Engine struct {
	cfg           ocr.Config
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New(cfg ocr.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:           cfg,
		clientFactory: gosseract.NewClient,
	}, nil
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs the engine over one card image and returns the raw text.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil {
		return "", &ocr.EngineError{Engine: e.Name(), Err: errNilImage}
	}

	buf := mempool.GetBuffer()
	defer mempool.PutBuffer(buf)
	if err := png.Encode(buf, img); err != nil {
		return "", &ocr.EngineError{Engine: e.Name(), Err: err}
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if e.cfg.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			return "", &ocr.EngineError{Engine: e.Name(), Err: err}
		}
	}
	if err := c.SetLanguage(e.cfg.Languages...); err != nil {
		return "", &ocr.EngineError{Engine: e.Name(), Err: err}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
		return "", &ocr.EngineError{Engine: e.Name(), Err: err}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", &ocr.EngineError{Engine: e.Name(), Err: err}
	}

	text, err := c.Text()
	if err != nil {
		return "", &ocr.EngineError{Engine: e.Name(), Err: err}
	}
	return text, nil
}
