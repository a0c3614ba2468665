package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/electora/rollscan/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the sheet extraction API",
	Long: `Start an HTTP server that provides REST API endpoints for sheet processing.

The server provides the following endpoints:
  POST /process        - Process an uploaded sheet scan
  GET  /process/ws     - Process sheets over a WebSocket with live progress
  GET  /download/{id}  - Download the workbook produced by a run
  GET  /health         - Health check endpoint
  GET  /metrics        - Prometheus metrics

Examples:
  rollscan serve
  rollscan serve --port 8080
  rollscan serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
	RunE: runServeCommand,
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Extract server configuration with CLI flag overrides
	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}

	maxUploadSize := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadSize, _ = cmd.Flags().GetInt("max-upload-size")
	}

	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	retention := cfg.Server.RetentionMin
	if cmd.Flags().Changed("retention") {
		retention, _ = cmd.Flags().GetInt("retention")
	}

	runDir, _ := cmd.Flags().GetString("run-dir")

	// Extract rate limiting configuration
	rateLimitEnabled := cfg.Server.RateLimitEnabled
	if cmd.Flags().Changed("rate-limit-enabled") {
		rateLimitEnabled, _ = cmd.Flags().GetBool("rate-limit-enabled")
	}

	requestsPerMinute := cfg.Server.RequestsPerMinute
	if cmd.Flags().Changed("requests-per-minute") {
		requestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
	}

	requestsPerHour := cfg.Server.RequestsPerHour
	if cmd.Flags().Changed("requests-per-hour") {
		requestsPerHour, _ = cmd.Flags().GetInt("requests-per-hour")
	}

	maxRequestsPerDay := cfg.Server.MaxRequestsPerDay
	if cmd.Flags().Changed("max-requests-per-day") {
		maxRequestsPerDay, _ = cmd.Flags().GetInt("max-requests-per-day")
	}

	maxDataPerDay := cfg.Server.MaxDataPerDay
	if cmd.Flags().Changed("max-data-per-day") {
		maxDataPerDay, _ = cmd.Flags().GetInt64("max-data-per-day")
	}

	// Validate port number
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pipeline configuration shares the grid and OCR flags with the sheet command
	pCfg := sheetPipelineConfig(cmd)

	serverConfig := server.Config{
		Host:         host,
		Port:         port,
		CORSOrigin:   corsOrigin,
		MaxUploadMB:  int64(maxUploadSize),
		TimeoutSec:   timeout,
		RetentionMin: retention,
		RunDir:       runDir,
		Pipeline:     pCfg,
		RateLimit: server.RateLimitConfig{
			Enabled:           rateLimitEnabled,
			RequestsPerMinute: requestsPerMinute,
			RequestsPerHour:   requestsPerHour,
			MaxRequestsPerDay: maxRequestsPerDay,
			MaxDataPerDay:     maxDataPerDay,
		},
	}

	// Initialize server
	sheetServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer func() { _ = sheetServer.Close() }()

	mux := http.NewServeMux()
	sheetServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	go func() {
		slog.Info("Starting sheet extraction server", "host", host, "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no request races the run store teardown
	slog.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server shutdown completed")
	}

	slog.Info("Cleaning up server resources")
	if err := sheetServer.Close(); err != nil {
		slog.Error("Server cleanup error", "error", err)
	} else {
		slog.Info("Server cleanup completed")
	}

	slog.Info("Graceful shutdown completed")
	return nil
}

// GetServeCommand returns the serve command for testing purposes.
func GetServeCommand() *cobra.Command {
	return serveCmd
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 120, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Int("retention", 15, "minutes completed runs stay downloadable")
	serveCmd.Flags().String("run-dir", "", "directory for per-run output (default: a temporary directory)")

	// Pipeline customization flags
	serveCmd.Flags().Int("rows", 10, "number of card rows per sheet")
	serveCmd.Flags().Int("cols", 3, "number of card columns per sheet")
	serveCmd.Flags().StringSlice("languages", []string{"mar", "eng"}, "tesseract languages, in priority order")
	serveCmd.Flags().Int("psm", 6, "tesseract page segmentation mode")
	serveCmd.Flags().String("tessdata", "", "override tessdata directory")
	serveCmd.Flags().IntP("workers", "w", 0, "number of parallel card workers (default: number of CPUs)")
	serveCmd.Flags().Int("start-serial", 1, "serial number assigned to the first card")
	serveCmd.Flags().Bool("no-faces", false, "skip face photo cropping")

	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", 1000, "maximum requests per hour per client")
	serveCmd.Flags().Int("max-requests-per-day", 5000, "maximum requests per day per client")
	serveCmd.Flags().Int64("max-data-per-day", 100*1024*1024, "maximum data processed per day per client (bytes)")
}
