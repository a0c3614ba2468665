// Package server exposes sheet extraction over HTTP: multipart uploads,
// workbook downloads and a websocket variant that streams progress.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/electora/rollscan/internal/ocr"
	"github.com/electora/rollscan/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    *pipeline.Pipeline
	baseConfig  pipeline.Config
	engine      ocr.Engine
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	rateLimiter *RateLimiter
	runs        *runStore
}

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	CORSOrigin   string
	MaxUploadMB  int64
	TimeoutSec   int
	RetentionMin int
	// RunDir is the parent directory for per-run output. A temporary
	// directory is created when it is empty.
	RunDir   string
	Pipeline pipeline.Config
	// Engine overrides the tesseract engine built from the pipeline config.
	Engine    ocr.Engine
	RateLimit RateLimitConfig
}

// RateLimitConfig holds per-client rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// HealthResponse reports liveness and build information.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Engine  string `json:"engine,omitempty"`
	Time    string `json:"time"`
}

// ProcessResponse is the JSON body for a successfully processed sheet.
type ProcessResponse struct {
	Status      string            `json:"status"`
	RunID       string            `json:"run_id"`
	FileName    string            `json:"file_name"`
	Records     []pipeline.Record `json:"records"`
	Failed      int               `json:"failed"`
	DownloadURL string            `json:"download_url"`
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// NewServer creates a voter sheet extraction server. The base pipeline is
// built up front so configuration errors surface at startup.
func NewServer(config Config) (*Server, error) {
	pl, err := buildSheetPipeline(config.Pipeline, config.Engine, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet pipeline: %w", err)
	}

	retention := time.Duration(config.RetentionMin) * time.Minute
	if retention <= 0 {
		retention = defaultRetention
	}
	runs, err := newRunStore(config.RunDir, retention, downloadLinger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		pipeline:    pl,
		baseConfig:  config.Pipeline,
		engine:      config.Engine,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		runs:        runs,
	}

	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.RequestsPerHour,
			config.RateLimit.MaxRequestsPerDay,
			config.RateLimit.MaxDataPerDay,
		)
	}

	return s, nil
}

// Close releases server resources and removes stored runs.
func (s *Server) Close() error {
	if s.runs != nil {
		return s.runs.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/process", s.corsMiddleware(s.rateLimitMiddleware(s.processSheetHandler)))
	mux.HandleFunc("/process/ws", s.rateLimitMiddleware(s.sheetWebSocketHandler))
	mux.HandleFunc("/download/", s.corsMiddleware(s.downloadHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// requestOverrides carries per-request pipeline settings.
type requestOverrides struct {
	Rows        int
	Cols        int
	Workers     int
	StartSerial int
}

// pipelineForRequest returns the shared pipeline, or builds a fresh one when
// the request carries its own settings or needs progress streaming.
func (s *Server) pipelineForRequest(ov requestOverrides, progress pipeline.ProgressCallback) (*pipeline.Pipeline, error) {
	if ov == (requestOverrides{}) && progress == nil {
		return s.pipeline, nil
	}

	cfg := s.baseConfig
	if ov.Rows > 0 {
		cfg.Grid.Rows = ov.Rows
	}
	if ov.Cols > 0 {
		cfg.Grid.Cols = ov.Cols
	}
	if ov.Workers > 0 {
		cfg.Workers = ov.Workers
	}
	if ov.StartSerial > 0 {
		cfg.StartSerial = ov.StartSerial
	}
	return buildSheetPipeline(cfg, s.engine, progress)
}

// buildSheetPipeline assembles a card extraction pipeline from the config.
func buildSheetPipeline(cfg pipeline.Config, engine ocr.Engine, progress pipeline.ProgressCallback) (*pipeline.Pipeline, error) {
	builder := pipeline.NewBuilder().
		WithGrid(cfg.Grid.Rows, cfg.Grid.Cols).
		WithLanguages(cfg.OCR.Languages...).
		WithPageSegMode(cfg.OCR.PageSegMode).
		WithTessdataPrefix(cfg.OCR.TessdataPrefix).
		WithExtractOptions(cfg.Extract).
		WithFaceOptions(cfg.Face).
		WithFaceCrops(cfg.FaceEnabled).
		WithStartSerial(cfg.StartSerial).
		WithWorkers(cfg.Workers)

	if engine != nil {
		builder = builder.WithEngine(engine)
	}
	if progress != nil {
		builder = builder.WithProgressCallback(progress)
	}
	return builder.Build()
}

func (s *Server) maxUploadBytes() int64 {
	return s.maxUploadMB * 1024 * 1024
}
