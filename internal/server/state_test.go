package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lutforge/lutforge/internal/adjust"
	"github.com/lutforge/lutforge/internal/config"
	"github.com/lutforge/lutforge/internal/diagnostics"
	"github.com/lutforge/lutforge/internal/lut"
)

func newTestState() *State {
	return NewState(config.Default())
}

func TestHealthReportsGrid(t *testing.T) {
	s := newTestState()
	rr := httptest.NewRecorder()
	s.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "identity", resp["source"])
	assert.EqualValues(t, 33, resp["lut_size"])
}

func TestUploadLUT(t *testing.T) {
	s := newTestState()
	body := lut.EncodeToString(adjust.SynthesizeSize(adjust.Adjustments{Contrast: 30}, 8))

	rr := httptest.NewRecorder()
	s.HandleUploadLUT(rr, httptest.NewRequest(http.MethodPost, "/api/lut", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.EqualValues(t, 8, resp["size"])
	assert.Equal(t, "parsed", resp["source"])
}

func TestUploadRejectsDegenerateLUT(t *testing.T) {
	s := newTestState()
	body := lut.EncodeToString(lut.Identity(4))

	rr := httptest.NewRecorder()
	s.HandleUploadLUT(rr, httptest.NewRequest(http.MethodPost, "/api/lut", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	// The previous grid must survive a failed upload.
	g, source := s.Grid()
	assert.Equal(t, "identity", source)
	assert.Equal(t, 33, g.Size())
}

func TestExportRoundTrips(t *testing.T) {
	s := newTestState()
	up := httptest.NewRecorder()
	body := lut.EncodeToString(adjust.SynthesizeSize(adjust.Adjustments{Saturation: 40}, 6))
	s.HandleUploadLUT(up, httptest.NewRequest(http.MethodPost, "/api/lut", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, up.Code)

	rr := httptest.NewRecorder()
	s.HandleExportLUT(rr, httptest.NewRequest(http.MethodGet, "/api/lut.cube", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".cube")

	g, err := lut.Parse(rr.Body.String())
	require.NoError(t, err)
	assert.Equal(t, 6, g.Size())
}

func TestAdjustEndpointSynthesizes(t *testing.T) {
	s := newTestState()
	body, _ := json.Marshal(adjust.Adjustments{Contrast: 45, Vibrance: 20})

	rr := httptest.NewRecorder()
	s.HandleAdjust(rr, httptest.NewRequest(http.MethodPost, "/api/adjust", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	g, source := s.Grid()
	assert.Equal(t, "synthesized", source)
	assert.Equal(t, 33, g.Size())
	assert.False(t, g.IsIdentity(0.01))
}

func TestGradeEndpoint(t *testing.T) {
	s := newTestState()
	body := []byte(`{"black_point":0.05,"white_point":0.95,"contrast":1.0,"saturation":1.0}`)

	rr := httptest.NewRecorder()
	s.HandleGrade(rr, httptest.NewRequest(http.MethodPost, "/api/grade", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	_, source := s.Grid()
	assert.Equal(t, "graded", source)
}

func TestApplyEndpointReturnsPNG(t *testing.T) {
	s := newTestState()

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(40 * x), G: uint8(60 * y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	// Identity grid + full intensity: output pixels must match input.
	rr := httptest.NewRecorder()
	s.HandleApply(rr, httptest.NewRequest(http.MethodPost, "/api/apply?intensity=1", &buf))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	out, err := png.Decode(rr.Body)
	require.NoError(t, err)
	got := ToRGBA(out)
	for i := range src.Pix {
		d := int(src.Pix[i]) - int(got.Pix[i])
		if d < 0 {
			d = -d
		}
		require.LessOrEqual(t, d, 1, "pixel byte %d", i)
	}
}

func TestApplyEndpointRejectsGarbage(t *testing.T) {
	s := newTestState()
	rr := httptest.NewRecorder()
	s.HandleApply(rr, httptest.NewRequest(http.MethodPost, "/api/apply", strings.NewReader("not an image")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestConcurrentDiagnosticPushes(t *testing.T) {
	s := newTestState()
	srv := httptest.NewServer(WithCORS(s.Routes()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/diag"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	// The handler registers the conn just after the handshake returns.
	time.Sleep(50 * time.Millisecond)

	// Many handlers failing at once all push to the same socket; the
	// writes must be serialized, one writer per conn.
	bad := lut.EncodeToString(lut.Identity(4))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/lut", "text/plain", strings.NewReader(bad))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var d diagnostics.Diagnostic
	require.NoError(t, json.Unmarshal(msg, &d))
	assert.Equal(t, "LUT.PARSE_FAILED", d.Code)
}

func TestMethodGuards(t *testing.T) {
	s := newTestState()
	for _, h := range []http.HandlerFunc{s.HandleUploadLUT, s.HandleAdjust, s.HandleGrade, s.HandleApply} {
		rr := httptest.NewRecorder()
		h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	}
}
