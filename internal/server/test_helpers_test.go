package server

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/electora/rollscan/internal/ocr"
	"github.com/electora/rollscan/internal/pipeline"
	"github.com/electora/rollscan/internal/segment"
	"github.com/electora/rollscan/internal/testutil"
)

const stubCardText = "XFC2589099 21/11/2020\nमतदाराचे पूर्ण नाव : गणेश पाटील\nघर क्रमांक : 12\nवय : 45 लिंग : पुरुष"

// stubEngine returns a fixed card text for every recognition.
type stubEngine struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(_ context.Context, _ image.Image) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return "", &ocr.EngineError{Engine: s.Name(), Err: s.err}
	}
	return stubCardText, nil
}

func (s *stubEngine) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// testServerConfig returns a small-grid server config backed by the given
// engine.
func testServerConfig(engine ocr.Engine) Config {
	pcfg := pipeline.DefaultConfig()
	pcfg.Grid = segment.Grid{Rows: 2, Cols: 2}
	pcfg.Workers = 1

	return Config{
		Host:         "localhost",
		Port:         8080,
		CORSOrigin:   "*",
		MaxUploadMB:  10,
		TimeoutSec:   30,
		RetentionMin: 15,
		Pipeline:     pcfg,
		Engine:       engine,
	}
}

// newTestServer builds a server from cfg with a temp run directory and
// registers cleanup.
func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	if cfg.RunDir == "" {
		cfg.RunDir = t.TempDir()
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

// sheetPNG encodes a 2x2 test sheet as PNG bytes.
func sheetPNG(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.CreateSheetImage(2, 2, 120, 90)))
	return buf.Bytes()
}

// newSheetUploadRequest creates a multipart form request carrying a sheet
// image.
func newSheetUploadRequest(
	imageData []byte,
	filename string,
	extraFields map[string]string,
) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("sheet", filename)
	if err != nil {
		return nil, err
	}
	_, err = part.Write(imageData)
	if err != nil {
		return nil, err
	}

	for key, value := range extraFields {
		err = writer.WriteField(key, value)
		if err != nil {
			return nil, err
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, err
	}

	req := httptest.NewRequest(http.MethodPost, "/process", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req, nil
}
