// Package report renders extraction results into spreadsheet workbooks.
// The layout mirrors the roll registers the sheets come from: bilingual
// column headers, one row per card in reading order and the cropped photo
// embedded in the last column.
package report

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"

	"github.com/electora/rollscan/internal/mempool"
	"github.com/electora/rollscan/internal/pipeline"
)

const (
	// SheetName is the worksheet all records land on.
	SheetName = "Voter Data"

	// DefaultWorkbookName is the output file name used when none is given.
	DefaultWorkbookName = "voter_data.xlsx"

	// Placeholder fills cells whose field the card text did not yield.
	Placeholder = "NA"

	fontFamily = "Mangal"
	fontSize   = 11

	thumbWidth      = 80
	rowHeightFactor = 0.75

	pictureOffset = 2
)

// headers follow the register layout; the roll itself is Marathi so the
// field columns keep their Marathi labels.
var headers = []string{
	"S.No.",
	"ID",
	"Serial",
	"मतदाराचे पूर्ण:",
	"पतीचे नाव / वडिलांचे नाव",
	"घर क्रमांक :",
	"वय :",
	"लिंग :",
	"Face image",
}

// columnWidths are fixed so workbooks from different batches line up when
// compared side by side.
var columnWidths = []float64{7, 24, 8, 26, 26, 14, 7, 10, 18}

// BuildWorkbook renders records into a new workbook. Records with no face
// crop get no picture and failed cards keep their placeholder row; an empty
// record list yields a header-only workbook.
func BuildWorkbook(records []pipeline.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Family: fontFamily, Size: fontSize, Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Family: fontFamily, Size: fontSize},
	})
	if err != nil {
		return nil, fmt.Errorf("body style: %w", err)
	}

	if err := writeHeader(f, headerStyle); err != nil {
		return nil, err
	}

	for i, rec := range records {
		if err := writeRecord(f, i, rec, bodyStyle); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return f, nil
}

// Write renders records and streams the workbook to w.
func Write(w io.Writer, records []pipeline.Record) error {
	f, err := BuildWorkbook(records)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile renders records into a workbook at path.
func WriteFile(path string, records []pipeline.Record) error {
	f, err := BuildWorkbook(records)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, h); err != nil {
			return err
		}

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, columnWidths[i]); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "A1", last, style)
}

func writeRecord(f *excelize.File, idx int, rec pipeline.Record, style int) error {
	row := idx + 2

	if err := setInt(f, 1, row, idx+1); err != nil {
		return err
	}
	if err := setInt(f, 3, row, rec.Serial); err != nil {
		return err
	}

	// Age and house numbers stay text cells so values like "007" survive.
	text := map[int]string{
		2: orPlaceholder(rec.Fields.VoterID),
		4: orPlaceholder(rec.Fields.Name),
		5: orPlaceholder(rec.Fields.RelativeName),
		6: orPlaceholder(rec.Fields.HouseNo),
		7: orPlaceholder(rec.Fields.Age),
		8: string(rec.Fields.Gender),
	}
	for col, v := range text {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, v); err != nil {
			return err
		}
	}

	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, first, last, style); err != nil {
		return err
	}

	if rec.Face != nil {
		if err := embedFace(f, row, rec.Face); err != nil {
			return err
		}
	}
	return nil
}

// embedFace scales the photo to the thumbnail width, embeds it in the last
// column and opens the row up to fit it.
func embedFace(f *excelize.File, row int, face image.Image) error {
	thumb := imaging.Resize(face, thumbWidth, 0, imaging.Lanczos)

	buf := mempool.GetBuffer()
	defer mempool.PutBuffer(buf)
	if err := png.Encode(buf, thumb); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	// The workbook holds on to the slice until it is written, so the
	// pooled buffer's bytes must be copied out.
	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())

	cell, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	if err := f.AddPictureFromBytes(SheetName, cell, &excelize.Picture{
		Extension: ".png",
		File:      data,
		Format: &excelize.GraphicOptions{
			OffsetX: pictureOffset,
			OffsetY: pictureOffset,
		},
	}); err != nil {
		return fmt.Errorf("embed picture: %w", err)
	}

	height := float64(thumb.Bounds().Dy()) * rowHeightFactor
	if err := f.SetRowHeight(SheetName, row, height); err != nil {
		return fmt.Errorf("set row height: %w", err)
	}
	return nil
}

func setInt(f *excelize.File, col, row, v int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellInt(SheetName, cell, v)
}

func orPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	return *s
}
