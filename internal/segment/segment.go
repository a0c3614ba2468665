// Package segment splits a scanned roll sheet into per-card images using a
// fixed row/column grid. Cell geometry is purely arithmetic; no content
// analysis is performed.
package segment

import (
	"fmt"
	"image"

	"github.com/electora/rollscan/internal/utils"
)

// Grid describes the card layout of a roll sheet.
type Grid struct {
	Rows int `mapstructure:"rows" yaml:"rows" json:"rows"`
	Cols int `mapstructure:"cols" yaml:"cols" json:"cols"`
}

// DefaultGrid returns the standard roll sheet layout.
func DefaultGrid() Grid {
	return Grid{Rows: 10, Cols: 3}
}

// Valid reports whether both dimensions are positive.
func (g Grid) Valid() bool { return g.Rows > 0 && g.Cols > 0 }

// Cells returns the number of cards the grid produces.
func (g Grid) Cells() int { return g.Rows * g.Cols }

func (g Grid) String() string { return fmt.Sprintf("%dx%d", g.Rows, g.Cols) }

// InvalidGridError reports a grid with non-positive dimensions.
type InvalidGridError struct {
	Rows int
	Cols int
}

func (e *InvalidGridError) Error() string {
	return fmt.Sprintf("invalid grid %dx%d: rows and cols must be positive", e.Rows, e.Cols)
}

// SegmentationError reports a sheet too small to hold even one grid cell.
type SegmentationError struct {
	SheetWidth  int
	SheetHeight int
	Grid        Grid
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("sheet %dx%d too small for grid %s: cell size would be zero",
		e.SheetWidth, e.SheetHeight, e.Grid)
}

// Card is one grid cell of a sheet. It keeps a reference to the shared sheet
// and its own rectangle, so the crop can be recomputed at any time without
// mutating shared state.
type Card struct {
	sheet image.Image

	Rect  image.Rectangle
	Row   int
	Col   int
	Index int
}

// Image returns a copy of the card's pixels cropped from the sheet.
func (c Card) Image() image.Image {
	return utils.CropImageRect(c.sheet, c.Rect)
}

// Split divides the sheet into rows*cols cards in row-major order.
//
// Cell width and height come from integer division of the sheet dimensions;
// the last column and last row absorb the remainder pixels so the full sheet
// is covered. Grid validation happens before the sheet is touched.
func Split(sheet image.Image, grid Grid) ([]Card, error) {
	if !grid.Valid() {
		return nil, &InvalidGridError{Rows: grid.Rows, Cols: grid.Cols}
	}
	if sheet == nil {
		return nil, &SegmentationError{Grid: grid}
	}

	b := sheet.Bounds()
	w, h := b.Dx(), b.Dy()
	cellW := w / grid.Cols
	cellH := h / grid.Rows
	if cellW == 0 || cellH == 0 {
		return nil, &SegmentationError{SheetWidth: w, SheetHeight: h, Grid: grid}
	}

	cards := make([]Card, 0, grid.Cells())
	for row := 0; row < grid.Rows; row++ {
		top := b.Min.Y + row*cellH
		bottom := top + cellH
		if row == grid.Rows-1 {
			bottom = b.Max.Y
		}
		for col := 0; col < grid.Cols; col++ {
			left := b.Min.X + col*cellW
			right := left + cellW
			if col == grid.Cols-1 {
				right = b.Max.X
			}
			cards = append(cards, Card{
				sheet: sheet,
				Rect:  image.Rect(left, top, right, bottom),
				Row:   row,
				Col:   col,
				Index: row*grid.Cols + col,
			})
		}
	}
	return cards, nil
}
