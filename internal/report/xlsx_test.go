package report

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/electora/rollscan/internal/extract"
	"github.com/electora/rollscan/internal/pipeline"
)

func strPtr(s string) *string { return &s }

func faceImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	return img
}

func sampleRecords() []pipeline.Record {
	return []pipeline.Record{
		{
			Serial: 101,
			Row:    0,
			Col:    0,
			Fields: extract.Fields{
				VoterID:      strPtr("XFC2589099 21/11/2020"),
				Name:         strPtr("गणेश कुमार पाटील"),
				RelativeName: strPtr("रमेश पाटील"),
				HouseNo:      strPtr("123"),
				Age:          strPtr("45"),
				Gender:       extract.GenderMale,
			},
			Face: faceImage(20, 28),
		},
		{
			Serial: 102,
			Row:    0,
			Col:    1,
			Fields: extract.Fields{Gender: extract.GenderUnknown},
			Failed: true,
		},
	}
}

func openWorkbook(t *testing.T, records []pipeline.Record) *excelize.File {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(SheetName, cell)
	require.NoError(t, err)
	return v
}

func TestWrite_HeaderRow(t *testing.T) {
	f := openWorkbook(t, nil)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1, "empty input should yield a header-only workbook")
	assert.Equal(t, headers, rows[0])
}

func TestWrite_RecordCells(t *testing.T) {
	f := openWorkbook(t, sampleRecords())

	assert.Equal(t, "1", cellValue(t, f, "A2"))
	assert.Equal(t, "XFC2589099 21/11/2020", cellValue(t, f, "B2"))
	assert.Equal(t, "101", cellValue(t, f, "C2"))
	assert.Equal(t, "गणेश कुमार पाटील", cellValue(t, f, "D2"))
	assert.Equal(t, "रमेश पाटील", cellValue(t, f, "E2"))
	assert.Equal(t, "123", cellValue(t, f, "F2"))
	assert.Equal(t, "45", cellValue(t, f, "G2"))
	assert.Equal(t, "male", cellValue(t, f, "H2"))
}

func TestWrite_FailedCardRow(t *testing.T) {
	f := openWorkbook(t, sampleRecords())

	assert.Equal(t, "2", cellValue(t, f, "A3"))
	assert.Equal(t, "102", cellValue(t, f, "C3"))
	for _, cell := range []string{"B3", "D3", "E3", "F3", "G3"} {
		assert.Equal(t, Placeholder, cellValue(t, f, cell))
	}
	assert.Equal(t, "unknown", cellValue(t, f, "H3"))
}

func TestWrite_FacePictures(t *testing.T) {
	f := openWorkbook(t, sampleRecords())

	pics, err := f.GetPictures(SheetName, "I2")
	require.NoError(t, err)
	require.Len(t, pics, 1)
	assert.Equal(t, ".png", pics[0].Extension)

	none, err := f.GetPictures(SheetName, "I3")
	require.NoError(t, err)
	assert.Empty(t, none, "record without a face crop must not embed a picture")
}

func TestWrite_RowHeightFitsThumbnail(t *testing.T) {
	f := openWorkbook(t, sampleRecords())

	// A 20x28 face becomes an 80x112 thumbnail, so the row opens to 84.
	h, err := f.GetRowHeight(SheetName, 2)
	require.NoError(t, err)
	assert.InDelta(t, 84.0, h, 0.5)

	// The placeholder row keeps the default height.
	h3, err := f.GetRowHeight(SheetName, 3)
	require.NoError(t, err)
	assert.Less(t, h3, 84.0)
}

func TestWrite_ImageColumnWidth(t *testing.T) {
	f := openWorkbook(t, sampleRecords())

	w, err := f.GetColWidth(SheetName, "I")
	require.NoError(t, err)
	assert.InDelta(t, 18.0, w, 0.5)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voters.xlsx")
	require.NoError(t, WriteFile(path, sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "XFC2589099 21/11/2020", cellValue(t, f, "B2"))
}
