package extract

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Options control the enhancement applied to a card image before it is
// handed to the recognition engine. The defaults are tuned for 300 DPI
// sheet scans where a single card lands around 300-400px wide.
type Options struct {
	// MinWidth is the width in pixels below which a card is upscaled
	// before recognition.
	MinWidth int `mapstructure:"min_width" yaml:"min_width" json:"min_width"`
	// UpscaleFactor multiplies both dimensions when a card is below
	// MinWidth. Lanczos resampling is used.
	UpscaleFactor int `mapstructure:"upscale_factor" yaml:"upscale_factor" json:"upscale_factor"`
	// Contrast is a multiplier where 1.0 keeps the source contrast.
	Contrast float64 `mapstructure:"contrast" yaml:"contrast" json:"contrast"`
	// Sharpness is a multiplier where 1.0 applies no sharpening.
	Sharpness float64 `mapstructure:"sharpness" yaml:"sharpness" json:"sharpness"`
}

// DefaultOptions returns the enhancement settings used for sheet scans.
func DefaultOptions() Options {
	return Options{
		MinWidth:      350,
		UpscaleFactor: 2,
		Contrast:      1.4,
		Sharpness:     1.1,
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.MinWidth < 0 {
		return fmt.Errorf("min_width must be non-negative, got %d", o.MinWidth)
	}
	if o.UpscaleFactor < 1 {
		return fmt.Errorf("upscale_factor must be at least 1, got %d", o.UpscaleFactor)
	}
	if o.Contrast <= 0 || o.Contrast > 4 {
		return fmt.Errorf("contrast must be in (0, 4], got %g", o.Contrast)
	}
	if o.Sharpness <= 0 || o.Sharpness > 4 {
		return fmt.Errorf("sharpness must be in (0, 4], got %g", o.Sharpness)
	}
	return nil
}

// Preprocess prepares a card image for recognition: grayscale conversion,
// conditional upscaling of small crops, then contrast and sharpness
// adjustment. The input image is never modified.
func Preprocess(img image.Image, opts Options) (image.Image, error) {
	if img == nil {
		return nil, errNilImage
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	out := imaging.Grayscale(img)
	if w := out.Bounds().Dx(); w > 0 && w < opts.MinWidth && opts.UpscaleFactor > 1 {
		out = imaging.Resize(out, w*opts.UpscaleFactor, 0, imaging.Lanczos)
	}
	if opts.Contrast != 1.0 {
		// imaging expresses contrast as a -100..100 percentage shift.
		out = imaging.AdjustContrast(out, (opts.Contrast-1)*100)
	}
	if opts.Sharpness > 1.0 {
		out = imaging.Sharpen(out, opts.Sharpness-1)
	}
	return out, nil
}
