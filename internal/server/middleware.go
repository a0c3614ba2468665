package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// responseWriter captures the status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware adds CORS headers and records request metrics.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next(wrapped, r)

		duration := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	}
}

// rateLimitMiddleware enforces per-client request and quota limits when a
// limiter is configured.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimiter == nil {
			next(w, r)
			return
		}

		clientID := getClientIP(r)

		var dataSize int64
		if r.ContentLength > 0 {
			dataSize = r.ContentLength
		}

		if err := s.rateLimiter.CheckRateLimit(clientID, dataSize); err != nil {
			var rateLimitErr *RateLimitError
			var quotaErr *QuotaExceededError
			switch {
			case errors.As(err, &rateLimitErr):
				rateLimitHits.WithLabelValues(rateLimitErr.Type).Inc()
			case errors.As(err, &quotaErr):
				rateLimitHits.WithLabelValues(quotaErr.Type).Inc()
			}
			s.handleRateLimitError(w, err)
			return
		}

		next(w, r)
	}
}

// handleRateLimitError writes the appropriate 429 response with limit
// headers for the two error flavors.
func (s *Server) handleRateLimitError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var rateLimitErr *RateLimitError
	var quotaErr *QuotaExceededError

	switch {
	case errors.As(err, &rateLimitErr):
		w.Header().Set("X-RateLimit-Type", rateLimitErr.Type)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rateLimitErr.Limit))
		w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitErr.RetryAfter.Seconds())))
		w.WriteHeader(http.StatusTooManyRequests)

		response := map[string]interface{}{
			"error":       "rate_limit_exceeded",
			"message":     rateLimitErr.Error(),
			"type":        rateLimitErr.Type,
			"retry_after": rateLimitErr.RetryAfter.Seconds(),
		}
		_ = json.NewEncoder(w).Encode(response)

	case errors.As(err, &quotaErr):
		w.Header().Set("X-Quota-Type", quotaErr.Type)
		w.Header().Set("X-Quota-Limit", strconv.FormatInt(quotaErr.Limit, 10))
		w.Header().Set("X-Quota-Used", strconv.FormatInt(quotaErr.Used, 10))
		w.Header().Set("X-Quota-Resets", quotaErr.Resets.Format(time.RFC3339))
		w.WriteHeader(http.StatusTooManyRequests)

		response := map[string]interface{}{
			"error":   "quota_exceeded",
			"message": quotaErr.Error(),
			"type":    quotaErr.Type,
			"resets":  quotaErr.Resets.Format(time.RFC3339),
		}
		_ = json.NewEncoder(w).Encode(response)

	default:
		w.WriteHeader(http.StatusInternalServerError)
		response := map[string]interface{}{
			"error":   "internal_error",
			"message": fmt.Sprintf("Rate limiting error: %v", err),
		}
		_ = json.NewEncoder(w).Encode(response)
	}
}

// getClientIP extracts the client address, honoring forwarding headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
