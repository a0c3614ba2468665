package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/version"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if s.pipeline != nil {
		response.Engine = s.pipeline.Engine().Name()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// processSheetHandler runs the extraction pipeline on an uploaded sheet and
// stores the resulting workbook for download.
func (s *Server) processSheetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, overrides, ok := s.parseSheetRequest(w, r)
	if !ok {
		sheetRequestsTotal.WithLabelValues("process", "error").Inc()
		return // error already written
	}

	pl, err := s.pipelineForRequest(overrides, nil)
	if err != nil {
		sheetRequestsTotal.WithLabelValues("process", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Invalid pipeline settings: %v", err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	result, err := pl.ProcessSheet(ctx, img)
	duration := time.Since(start)

	if err != nil {
		sheetRequestsTotal.WithLabelValues("process", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Sheet processing failed: %v", err), http.StatusInternalServerError)
		return
	}

	sheetRequestsTotal.WithLabelValues("process", "success").Inc()
	sheetProcessingDuration.WithLabelValues("process").Observe(duration.Seconds())
	sheetCards.WithLabelValues("process").Observe(float64(len(result.Records)))
	sheetCardFailures.WithLabelValues("process").Observe(float64(result.Failed))

	response, err := s.finishRun(result)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to store results: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding process response: %v\n", err)
	}
}

// parseSheetRequest reads the multipart upload and the optional pipeline
// settings. Errors are written to the response before returning.
func (s *Server) parseSheetRequest(w http.ResponseWriter, r *http.Request) (image.Image, requestOverrides, bool) {
	var overrides requestOverrides

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "request body too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, overrides, false
	}

	file, header, err := r.FormFile("sheet")
	if err != nil {
		s.writeErrorResponse(w, "No sheet image provided", http.StatusBadRequest)
		return nil, overrides, false
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadBytes() {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, overrides, false
	}
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read sheet data", http.StatusInternalServerError)
		return nil, overrides, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return nil, overrides, false
	}

	overrides, err = parseOverrides(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return nil, overrides, false
	}

	return img, overrides, true
}

// parseOverrides reads optional pipeline settings from the form.
func parseOverrides(r *http.Request) (requestOverrides, error) {
	var ov requestOverrides
	fields := map[string]*int{
		"rows":         &ov.Rows,
		"cols":         &ov.Cols,
		"workers":      &ov.Workers,
		"start_serial": &ov.StartSerial,
	}
	for key, field := range fields {
		val := r.FormValue(key)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return requestOverrides{}, fmt.Errorf("invalid %s value: %q", key, val)
		}
		*field = n
	}
	return ov, nil
}

// finishRun stores the workbook for a result and builds the JSON response.
func (s *Server) finishRun(result *pipeline.Result) (*ProcessResponse, error) {
	stored, err := s.runs.Create(result.Records)
	if err != nil {
		return nil, err
	}
	return &ProcessResponse{
		Status:      "success",
		RunID:       stored.ID,
		FileName:    stored.FileName,
		Records:     result.Records,
		Failed:      result.Failed,
		DownloadURL: "/download/" + stored.ID,
	}, nil
}

// downloadHandler streams a stored workbook and schedules its cleanup after
// the download completes.
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/download/")
	if _, err := uuid.Parse(id); err != nil {
		s.writeErrorResponse(w, "Invalid run id", http.StatusBadRequest)
		return
	}

	stored, ok := s.runs.Get(id)
	if !ok {
		s.writeErrorResponse(w, "Workbook not found or already deleted", http.StatusNotFound)
		return
	}

	f, err := os.Open(stored.Workbook)
	if err != nil {
		s.writeErrorResponse(w, "Workbook not found or already deleted", http.StatusNotFound)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", stored.FileName))
	if _, err := io.Copy(w, f); err != nil {
		// Client went away mid-transfer; keep the run for a retry.
		return
	}
	s.runs.Release(id)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Status: "failed",
		Error:  message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Log error, but can't send another response
		fmt.Fprintf(os.Stderr, "Error writing error response: %v\n", err)
	}
}
