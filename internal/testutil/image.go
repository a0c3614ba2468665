package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CreateTestImage creates a simple test image with the specified dimensions and color.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// CreateCardImage renders a white voter card with the given text lines and a
// thin border. Lines are drawn with a basic bitmap font; glyphs outside its
// ASCII range come out blank.
func CreateCardImage(width, height int, lines ...string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	border := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	for x := 0; x < width; x++ {
		img.Set(x, 0, border)
		img.Set(x, height-1, border)
	}
	for y := 0; y < height; y++ {
		img.Set(0, y, border)
		img.Set(width-1, y, border)
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
	}
	lineHeight := basicfont.Face7x13.Metrics().Height.Ceil() + 2
	for i, line := range lines {
		drawer.Dot = fixed.P(6, 14+i*lineHeight)
		drawer.DrawString(line)
	}

	return img
}

// CellShade returns the gray shade CreateSheetImage paints the cell at the
// given card index with. Shades are distinct for up to 200 cards.
func CellShade(index int) uint8 {
	return uint8(40 + (index*17)%200) //nolint:gosec // G115: value stays within 40..239
}

// CreateSheetImage builds a rows x cols sheet where every cell is filled
// with a distinct gray shade, so card identity survives segmentation and
// image enhancement in tests.
func CreateSheetImage(rows, cols, cardWidth, cardHeight int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, cols*cardWidth, rows*cardHeight))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			shade := CellShade(row*cols + col)
			cell := image.Rect(col*cardWidth, row*cardHeight, (col+1)*cardWidth, (row+1)*cardHeight)
			fill := color.RGBA{R: shade, G: shade, B: shade, A: 255}
			draw.Draw(img, cell, &image.Uniform{fill}, image.Point{}, draw.Src)
		}
	}
	return img
}

// SavePNG writes img to path, creating parent directories as needed.
func SavePNG(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)), "Failed to create directory for %s", path)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// WriteSheetPNG generates a sheet image and writes it to path.
func WriteSheetPNG(t *testing.T, path string, rows, cols, cardWidth, cardHeight int) {
	t.Helper()
	SavePNG(t, CreateSheetImage(rows, cols, cardWidth, cardHeight), path)
}
