package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/report"
)

// formatBatchResults renders the combined batch results in the specified format.
func formatBatchResults(result *Result, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(result)
	case "csv":
		return formatCSV(result)
	default: // text
		return formatText(result)
	}
}

// formatJSON formats results as JSON.
func formatJSON(result *Result) (string, error) {
	type jsonSheet struct {
		File   string `json:"file"`
		Cards  int    `json:"cards"`
		Failed int    `json:"failed"`
		Error  string `json:"error,omitempty"`
	}

	output := struct {
		Sheets  []jsonSheet       `json:"sheets"`
		Records []pipeline.Record `json:"records"`
	}{
		Sheets:  make([]jsonSheet, len(result.Sheets)),
		Records: result.Records,
	}

	for i, sheet := range result.Sheets {
		js := jsonSheet{File: sheet.Path}
		if sheet.Err != nil {
			js.Error = sheet.Err.Error()
		} else if sheet.Result != nil {
			js.Cards = len(sheet.Result.Records)
			js.Failed = sheet.Result.Failed
		}
		output.Sheets[i] = js
	}

	bts, err := json.MarshalIndent(output, "", "  ")
	return string(bts), err
}

// formatCSV formats results as CSV, one row per card.
func formatCSV(result *Result) (string, error) {
	csvData := [][]string{{
		"file", "s_no", "serial", "row", "col",
		"voter_id", "reg_no", "name", "relative_name", "house_no", "age", "gender", "failed",
	}}

	sNo := 0
	for _, sheet := range result.Sheets {
		if sheet.Result == nil {
			continue
		}
		for _, rec := range sheet.Result.Records {
			sNo++
			csvData = append(csvData, []string{
				sheet.Path,
				strconv.Itoa(sNo),
				strconv.Itoa(rec.Serial),
				strconv.Itoa(rec.Row),
				strconv.Itoa(rec.Col),
				orEmpty(rec.Fields.VoterID),
				orEmpty(rec.Fields.RegNo),
				orEmpty(rec.Fields.Name),
				orEmpty(rec.Fields.RelativeName),
				orEmpty(rec.Fields.HouseNo),
				orEmpty(rec.Fields.Age),
				string(rec.Fields.Gender),
				strconv.FormatBool(rec.Failed),
			})
		}
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	for _, row := range csvData {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText formats results as plain text, one sheet per section.
func formatText(result *Result) (string, error) {
	var output strings.Builder
	for i, sheet := range result.Sheets {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", sheet.Path)

		if sheet.Err != nil {
			fmt.Fprintf(&output, "  skipped: %v\n", sheet.Err)
			continue
		}
		if sheet.Result == nil {
			continue
		}

		for _, rec := range sheet.Result.Records {
			if rec.Failed {
				fmt.Fprintf(&output, "  %4d  <no text extracted>\n", rec.Serial)
				continue
			}
			fmt.Fprintf(&output, "  %4d  %-12s  %s (age %s, %s)\n",
				rec.Serial,
				orNA(rec.Fields.VoterID),
				orNA(rec.Fields.Name),
				orNA(rec.Fields.Age),
				rec.Fields.Gender,
			)
		}
	}
	return output.String(), nil
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return report.Placeholder
	}
	return *s
}
