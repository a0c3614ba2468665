package batch

import (
	"errors"
	"fmt"
	"image"

	"github.com/electora/rollscan/internal/utils"
)

// Margins is the page frame trimmed off a sheet, in pixels per edge,
// before the grid split. Scans often carry a header band and punch-hole
// margin that would otherwise bleed into the first and last card rows.
type Margins struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// ApplyMargins crops the page frame off the sheet. Zero margins return the
// sheet unchanged.
func ApplyMargins(sheet image.Image, m Margins) (image.Image, error) {
	if sheet == nil {
		return nil, errors.New("nil sheet")
	}
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		return nil, fmt.Errorf("negative margins: %+v", m)
	}
	if m == (Margins{}) {
		return sheet, nil
	}

	b := sheet.Bounds()
	inner := image.Rect(b.Min.X+m.Left, b.Min.Y+m.Top, b.Max.X-m.Right, b.Max.Y-m.Bottom)
	if inner.Dx() <= 0 || inner.Dy() <= 0 {
		return nil, fmt.Errorf("margins %+v leave no sheet area in %dx%d image", m, b.Dx(), b.Dy())
	}

	return utils.CropImageRect(sheet, inner), nil
}
