// Package face crops the photo region out of a voter card. Card layouts
// place the photo along the right edge, so the region is expressed as
// fractions of the card dimensions and holds across scan resolutions.
package face

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/electora/rollscan/internal/utils"
)

// Region locates the photo as fractions of the card dimensions.
type Region struct {
	Left   float64 `mapstructure:"left" yaml:"left" json:"left"`
	Top    float64 `mapstructure:"top" yaml:"top" json:"top"`
	Right  float64 `mapstructure:"right" yaml:"right" json:"right"`
	Bottom float64 `mapstructure:"bottom" yaml:"bottom" json:"bottom"`
}

// DefaultRegion matches the standard card layout with the photo in the
// upper right corner.
func DefaultRegion() Region {
	return Region{Left: 0.78, Top: 0.30, Right: 0.98, Bottom: 0.85}
}

// Validate checks that the fractions are ordered and inside the card.
func (r Region) Validate() error {
	if r.Left < 0 || r.Top < 0 || r.Right > 1 || r.Bottom > 1 {
		return fmt.Errorf("region fractions must lie in [0, 1], got %+v", r)
	}
	if r.Left >= r.Right || r.Top >= r.Bottom {
		return fmt.Errorf("region must have positive extent, got %+v", r)
	}
	return nil
}

// Options configure photo cropping. Contrast and Sharpness are multipliers
// where 1.0 leaves the crop untouched; the defaults lift low-contrast scans
// enough for the photo to stay recognizable in reports.
type Options struct {
	Region    Region  `mapstructure:"region" yaml:"region" json:"region"`
	Contrast  float64 `mapstructure:"contrast" yaml:"contrast" json:"contrast"`
	Sharpness float64 `mapstructure:"sharpness" yaml:"sharpness" json:"sharpness"`
}

// DefaultOptions returns the crop settings used for sheet scans.
func DefaultOptions() Options {
	return Options{
		Region:    DefaultRegion(),
		Contrast:  1.2,
		Sharpness: 1.3,
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if err := o.Region.Validate(); err != nil {
		return err
	}
	if o.Contrast <= 0 || o.Contrast > 4 {
		return fmt.Errorf("contrast must be in (0, 4], got %g", o.Contrast)
	}
	if o.Sharpness <= 0 || o.Sharpness > 4 {
		return fmt.Errorf("sharpness must be in (0, 4], got %g", o.Sharpness)
	}
	return nil
}

// Crop cuts the photo region out of a card image and enhances it. The
// returned image is always a copy; the card is never modified.
func Crop(card image.Image, opts Options) (image.Image, error) {
	if card == nil {
		return nil, errors.New("face: nil card image")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("face: invalid options: %w", err)
	}

	b := card.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	box := utils.NewBox(
		float64(b.Min.X)+opts.Region.Left*w,
		float64(b.Min.Y)+opts.Region.Top*h,
		float64(b.Min.X)+opts.Region.Right*w,
		float64(b.Min.Y)+opts.Region.Bottom*h,
	)

	out := utils.CropImageRect(card, box.ToRect(b))
	if out.Bounds().Empty() {
		return nil, fmt.Errorf("face: card %dx%d leaves an empty photo region", b.Dx(), b.Dy())
	}
	if opts.Contrast != 1.0 {
		out = imaging.AdjustContrast(out, (opts.Contrast-1)*100)
	}
	if opts.Sharpness > 1.0 {
		out = imaging.Sharpen(out, opts.Sharpness-1)
	}
	return out, nil
}
