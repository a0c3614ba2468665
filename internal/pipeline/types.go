package pipeline

import (
	"image"
	"time"

	"github.com/electora/rollscan/internal/extract"
	"github.com/electora/rollscan/internal/segment"
)

// Record is one card's outcome: its grid position, the serial assigned to
// it, the extracted fields and the cropped photo. A card whose recognition
// failed still yields a record, with Failed set and placeholder fields, so
// sheet output always carries rows*cols records in reading order.
type Record struct {
	Serial int            `json:"serial"`
	Row    int            `json:"row"`
	Col    int            `json:"col"`
	Fields extract.Fields `json:"fields"`
	Failed bool           `json:"failed,omitempty"`

	// Face is the cropped photo, nil when face cropping is disabled or
	// the crop failed. It never travels over JSON.
	Face image.Image `json:"-"`
}

// Result is the outcome of processing one sheet.
type Result struct {
	Grid        segment.Grid  `json:"grid"`
	SheetWidth  int           `json:"sheet_width"`
	SheetHeight int           `json:"sheet_height"`
	Records     []Record      `json:"records"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration_ns"`
}
