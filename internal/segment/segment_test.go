package segment

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSheet(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestSplit_InvalidGrid(t *testing.T) {
	cases := []struct {
		name string
		grid Grid
	}{
		{"zero rows", Grid{Rows: 0, Cols: 3}},
		{"zero cols", Grid{Rows: 10, Cols: 0}},
		{"negative rows", Grid{Rows: -1, Cols: 3}},
		{"both zero", Grid{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cards, err := Split(newSheet(300, 1000), c.grid)
			require.Error(t, err)
			assert.Nil(t, cards)

			var gridErr *InvalidGridError
			require.ErrorAs(t, err, &gridErr)
			assert.Equal(t, c.grid.Rows, gridErr.Rows)
			assert.Equal(t, c.grid.Cols, gridErr.Cols)
		})
	}
}

func TestSplit_GridValidatedBeforeSheet(t *testing.T) {
	// A nil sheet must not be touched when the grid is already invalid.
	_, err := Split(nil, Grid{Rows: 0, Cols: 3})
	var gridErr *InvalidGridError
	require.ErrorAs(t, err, &gridErr)
}

func TestSplit_SheetSmallerThanOneCell(t *testing.T) {
	// 2px wide sheet cannot hold 3 columns.
	_, err := Split(newSheet(2, 1000), Grid{Rows: 10, Cols: 3})
	require.Error(t, err)

	var segErr *SegmentationError
	require.ErrorAs(t, err, &segErr)
	assert.Equal(t, 2, segErr.SheetWidth)

	// Same for height.
	_, err = Split(newSheet(300, 5), Grid{Rows: 10, Cols: 3})
	require.ErrorAs(t, err, &segErr)
}

func TestSplit_SingleCell(t *testing.T) {
	cards, err := Split(newSheet(120, 80), Grid{Rows: 1, Cols: 1})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, image.Rect(0, 0, 120, 80), cards[0].Rect)
	assert.Equal(t, 0, cards[0].Index)
}

func TestSplit_RowMajorOrderAndIndices(t *testing.T) {
	grid := Grid{Rows: 10, Cols: 3}
	cards, err := Split(newSheet(300, 1000), grid)
	require.NoError(t, err)
	require.Len(t, cards, 30)

	for k, c := range cards {
		assert.Equal(t, k, c.Index)
		assert.Equal(t, k/grid.Cols, c.Row)
		assert.Equal(t, k%grid.Cols, c.Col)
	}

	// Row-major means the second card sits right of the first, and the
	// fourth starts the next row.
	assert.Equal(t, cards[0].Rect.Max.X, cards[1].Rect.Min.X)
	assert.Equal(t, cards[0].Rect.Min.Y, cards[1].Rect.Min.Y)
	assert.Equal(t, cards[0].Rect.Max.Y, cards[3].Rect.Min.Y)
	assert.Equal(t, cards[0].Rect.Min.X, cards[3].Rect.Min.X)
}

func TestSplit_LastRowAndColumnClamped(t *testing.T) {
	// 10 is not divisible by 3: interior cells get 3px, the last gets 4.
	cards, err := Split(newSheet(10, 10), Grid{Rows: 3, Cols: 3})
	require.NoError(t, err)
	require.Len(t, cards, 9)

	assert.Equal(t, 3, cards[0].Rect.Dx())
	assert.Equal(t, 3, cards[1].Rect.Dx())
	assert.Equal(t, 4, cards[2].Rect.Dx())
	assert.Equal(t, 10, cards[2].Rect.Max.X)

	last := cards[8]
	assert.Equal(t, 4, last.Rect.Dx())
	assert.Equal(t, 4, last.Rect.Dy())
	assert.Equal(t, image.Pt(10, 10), last.Rect.Max)
}

func TestSplit_Deterministic(t *testing.T) {
	sheet := newSheet(307, 997)
	grid := Grid{Rows: 10, Cols: 3}

	first, err := Split(sheet, grid)
	require.NoError(t, err)
	second, err := Split(sheet, grid)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Rect, second[i].Rect)
	}
}

func TestCard_ImageRecomputable(t *testing.T) {
	sheet := image.NewRGBA(image.Rect(0, 0, 30, 20))
	cards, err := Split(sheet, Grid{Rows: 2, Cols: 3})
	require.NoError(t, err)

	c := cards[4] // row 1, col 1
	img1 := c.Image()
	img2 := c.Image()
	require.NotNil(t, img1)
	assert.Equal(t, c.Rect.Dx(), img1.Bounds().Dx())
	assert.Equal(t, c.Rect.Dy(), img1.Bounds().Dy())
	assert.Equal(t, img1.Bounds(), img2.Bounds())
}

func TestSplit_NilSheetWithValidGrid(t *testing.T) {
	_, err := Split(nil, DefaultGrid())
	var segErr *SegmentationError
	require.ErrorAs(t, err, &segErr)
}

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()
	assert.Equal(t, 10, g.Rows)
	assert.Equal(t, 3, g.Cols)
	assert.Equal(t, 30, g.Cells())
	assert.True(t, g.Valid())
}

func TestInvalidGridError_NotSegmentationError(t *testing.T) {
	_, err := Split(newSheet(10, 10), Grid{Rows: -2, Cols: 3})
	var segErr *SegmentationError
	assert.False(t, errors.As(err, &segErr))
}
