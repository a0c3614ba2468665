package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsReadDeadline  = 60 * time.Second
	wsPingInterval  = 30 * time.Second
	wsPingWriteWait = 10 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are not restricted; the API carries no credentials.
		return true
	},
}

// SheetRequest is the single message a websocket client sends to start a
// run. Sheet carries the base64-encoded image bytes.
type SheetRequest struct {
	Sheet       []byte `json:"sheet"`
	Rows        int    `json:"rows,omitempty"`
	Cols        int    `json:"cols,omitempty"`
	Workers     int    `json:"workers,omitempty"`
	StartSerial int    `json:"start_serial,omitempty"`
}

// SheetProgress is streamed back while a run is in flight, followed by one
// final message carrying the result.
type SheetProgress struct {
	Type      string           `json:"type"`   // "progress", "result" or "error"
	Status    string           `json:"status"` // "processing", "completed" or "error"
	Current   int              `json:"current,omitempty"`
	Total     int              `json:"total,omitempty"`
	Progress  float64          `json:"progress,omitempty"`
	Result    *ProcessResponse `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// wsConnWriter is the connection surface the senders need.
type wsConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// sheetWebSocketHandler processes one sheet per connection, streaming
// per-card progress to the client.
func (s *Server) sheetWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("websocket connection established", "remote_addr", r.RemoteAddr)

	s.handleSheetConnection(conn)
}

// handleSheetConnection reads the single request message and processes it.
func (s *Server) handleSheetConnection(conn *websocket.Conn) {
	// Base64 roughly inflates the upload by a third.
	conn.SetReadLimit(2 * s.maxUploadBytes())
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	_, data, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			slog.Error("websocket read failed", "error", err)
		}
		return
	}
	websocketMessagesTotal.WithLabelValues("received").Inc()

	s.handleSheetMessage(conn, data)
}

// pingLoop keeps the connection alive while a sheet is processed.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsPingWriteWait)); err != nil {
				return
			}
		}
	}
}

// handleSheetMessage decodes the request, runs the pipeline with a progress
// callback bound to the connection and sends the final result.
func (s *Server) handleSheetMessage(conn *websocket.Conn, data []byte) {
	var req SheetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendSheetError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if len(req.Sheet) == 0 {
		s.sendSheetError(conn, "invalid_request", "No sheet data provided")
		return
	}

	img, _, err := image.Decode(bytes.NewReader(req.Sheet))
	if err != nil {
		s.sendSheetError(conn, "processing_error", fmt.Sprintf("Failed to decode sheet: %v", err))
		return
	}

	requestID := uuid.NewString()
	overrides := requestOverrides{
		Rows:        req.Rows,
		Cols:        req.Cols,
		Workers:     req.Workers,
		StartSerial: req.StartSerial,
	}
	progress := &wsProgress{server: s, conn: conn, requestID: requestID}

	pl, err := s.pipelineForRequest(overrides, progress)
	if err != nil {
		s.sendSheetError(conn, "invalid_request", fmt.Sprintf("Invalid pipeline settings: %v", err))
		return
	}

	// The connection is hijacked, so the request context no longer tracks
	// the client; processing runs to completion regardless.
	start := time.Now()
	result, err := pl.ProcessSheet(context.Background(), img)
	duration := time.Since(start)

	if err != nil {
		sheetRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendSheetError(conn, "processing_error", fmt.Sprintf("Sheet processing failed: %v", err))
		return
	}

	sheetRequestsTotal.WithLabelValues("websocket", "success").Inc()
	sheetProcessingDuration.WithLabelValues("websocket").Observe(duration.Seconds())
	sheetCards.WithLabelValues("websocket").Observe(float64(len(result.Records)))
	sheetCardFailures.WithLabelValues("websocket").Observe(float64(result.Failed))

	response, err := s.finishRun(result)
	if err != nil {
		s.sendSheetError(conn, "processing_error", fmt.Sprintf("Failed to store results: %v", err))
		return
	}

	s.sendSheetProgress(conn, SheetProgress{
		Type:      "result",
		Status:    "completed",
		Current:   len(result.Records),
		Total:     len(result.Records),
		Progress:  1.0,
		Result:    response,
		RequestID: requestID,
	})
}

// wsProgress adapts pipeline progress updates to websocket messages. All
// callbacks arrive from a single goroutine, so writes stay ordered.
type wsProgress struct {
	server    *Server
	conn      wsConnWriter
	requestID string
}

func (p *wsProgress) OnStart(total int) {
	p.server.sendSheetProgress(p.conn, SheetProgress{
		Type:      "progress",
		Status:    "processing",
		Total:     total,
		RequestID: p.requestID,
	})
}

func (p *wsProgress) OnProgress(current, total int) {
	if total == 0 {
		return
	}
	p.server.sendSheetProgress(p.conn, SheetProgress{
		Type:      "progress",
		Status:    "processing",
		Current:   current,
		Total:     total,
		Progress:  float64(current) / float64(total),
		RequestID: p.requestID,
	})
}

func (p *wsProgress) OnComplete() {}

// OnError is a no-op: failed cards already surface as placeholder records
// in the final result.
func (p *wsProgress) OnError(int, error) {}

// sendSheetProgress sends one message over the websocket.
func (s *Server) sendSheetProgress(conn wsConnWriter, msg SheetProgress) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal websocket message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("failed to send websocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendSheetError sends an error message over the websocket.
func (s *Server) sendSheetError(conn wsConnWriter, errorType, message string) {
	s.sendSheetProgress(conn, SheetProgress{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
