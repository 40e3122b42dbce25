// Package server exposes the LUT engine over HTTP and websockets:
// upload/export of .cube bodies, slider and parameter synthesis, image
// application, plus live preview and diagnostic sockets.
package server

import (
	"encoding/json"
	"image"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lutforge/lutforge/internal/adjust"
	"github.com/lutforge/lutforge/internal/apply"
	"github.com/lutforge/lutforge/internal/config"
	diag "github.com/lutforge/lutforge/internal/diagnostics"
	"github.com/lutforge/lutforge/internal/lut"
)

const maxLUTBody = 32 << 20 // .cube uploads; a 64^3 LUT is ~7 MB of text

// State holds the current grid and serving defaults behind a lock.
// The grid itself is immutable; swapping the pointer is the only write.
type State struct {
	mu        sync.RWMutex
	grid      *lut.Grid
	source    string // "identity" | "parsed" | "synthesized" | "graded"
	intensity float64
	workers   int
	title     string
	size      int

	startTime   time.Time
	diagClients map[*websocket.Conn]bool
}

func NewState(cfg *config.Config) *State {
	if cfg == nil {
		cfg = config.Default()
	}
	size := cfg.Export.Size
	if size < 2 {
		size = adjust.DefaultSize
	}
	g := lut.Identity(size)
	g.Title = cfg.Export.Title
	return &State{
		grid:        g,
		source:      "identity",
		intensity:   cfg.Intensity,
		workers:     cfg.Workers,
		title:       cfg.Export.Title,
		size:        size,
		startTime:   time.Now(),
		diagClients: map[*websocket.Conn]bool{},
	}
}

// Routes wires the handler set onto a fresh mux.
func (s *State) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/api/lut", s.HandleUploadLUT)
	mux.HandleFunc("/api/lut.cube", s.HandleExportLUT)
	mux.HandleFunc("/api/adjust", s.HandleAdjust)
	mux.HandleFunc("/api/grade", s.HandleGrade)
	mux.HandleFunc("/api/apply", s.HandleApply)
	mux.HandleFunc("/ws/preview", s.HandlePreviewWS)
	mux.HandleFunc("/ws/diag", s.HandleDiagWS)
	return mux
}

// WithCORS allows the browser front-end to call from any origin.
func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (s *State) setGrid(g *lut.Grid, source string) {
	s.mu.Lock()
	if g.Title == "" {
		g.Title = s.title
	}
	s.grid = g
	s.source = source
	s.mu.Unlock()
}

// Grid returns the current grid and its provenance.
func (s *State) Grid() (*lut.Grid, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid, s.source
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"uptime_s":  time.Since(s.startTime).Seconds(),
		"lut_size":  s.grid.Size(),
		"populated": s.grid.Populated(),
		"source":    s.source,
		"intensity": s.intensity,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleUploadLUT accepts a raw .cube body (possibly JSON-escaped in
// transit) and makes it the current grid. A rejected body keeps the
// previous grid and surfaces an explicit error; a LUT that secretly
// does nothing must not look like success.
func (s *State) HandleUploadLUT(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLUTBody))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	g, err := lut.Parse(string(body))
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(body)).Msg("LUT upload rejected")
		s.pushDiag(diag.ParseFailure(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.setGrid(g, "parsed")
	log.Info().Int("size", g.Size()).Int("populated", g.Populated()).Msg("LUT uploaded")
	s.writeGridMeta(w)
}

// HandleExportLUT serves the current grid as a downloadable .cube file.
func (s *State) HandleExportLUT(w http.ResponseWriter, r *http.Request) {
	g, _ := s.Grid()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename=lutforge.cube`)
	if err := lut.Encode(w, g); err != nil {
		log.Error().Err(err).Msg("export LUT")
	}
}

// HandleAdjust synthesizes the current grid from slider values.
func (s *State) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var a adjust.Adjustments
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "decode adjustments: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	size := s.size
	s.mu.RUnlock()
	s.setGrid(adjust.SynthesizeSize(a, size), "synthesized")
	s.writeGridMeta(w)
}

// HandleGrade synthesizes the current grid from the analysis-service
// parameter schema.
func (s *State) HandleGrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	p := adjust.DefaultParams()
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "decode params: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	size := s.size
	s.mu.RUnlock()
	s.setGrid(adjust.GradeSize(p, size), "graded")
	s.writeGridMeta(w)
}

// HandleApply decodes the uploaded image, runs it through the current
// grid and answers with a PNG. Query params: intensity (0..1, default
// from config), preview=1 for the fast nearest-node path.
func (s *State) HandleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	src, _, err := image.Decode(r.Body)
	if err != nil {
		http.Error(w, "decode image: "+err.Error(), http.StatusBadRequest)
		return
	}
	rgba := ToRGBA(src)

	g, _ := s.Grid()
	s.mu.RLock()
	intensity := s.intensity
	workers := s.workers
	s.mu.RUnlock()
	if v := r.URL.Query().Get("intensity"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			intensity = f
		}
	}

	start := time.Now()
	var out *image.RGBA
	if r.URL.Query().Get("preview") == "1" {
		out = apply.Preview(g, rgba, intensity)
	} else {
		out = apply.ApplyWith(g, rgba, intensity, apply.Options{Workers: workers})
	}
	elapsed := time.Since(start)
	log.Info().
		Int("w", rgba.Bounds().Dx()).
		Int("h", rgba.Bounds().Dy()).
		Float64("intensity", intensity).
		Dur("took", elapsed).
		Msg("image transformed")
	s.pushDiag(diag.Diagnostic{
		Severity: diag.Info,
		Code:     "APPLY.DONE",
		Summary:  "Image transformed",
		Evidence: map[string]any{"ms": elapsed.Milliseconds(), "px": rgba.Bounds().Dx() * rgba.Bounds().Dy()},
	})

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, out); err != nil {
		log.Error().Err(err).Msg("encode png")
	}
}

// HandlePreviewWS is the live slider loop: the client streams
// Adjustments JSON, the server re-synthesizes and answers with swatches
// and grid metadata. Debouncing is the client's job.
func (s *State) HandlePreviewWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var a adjust.Adjustments
		if err := json.Unmarshal(data, &a); err != nil {
			continue
		}
		s.mu.RLock()
		size := s.size
		s.mu.RUnlock()
		g := adjust.SynthesizeSize(a, size)
		s.setGrid(g, "synthesized")

		resp := map[string]any{
			"size":     g.Size(),
			"swatches": apply.Swatches(g, 12),
		}
		b, _ := json.Marshal(resp)
		conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write preview")
			return
		}
	}
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	// Exclusive lock: gorilla conns allow one writer at a time, and
	// concurrent handlers can push diagnostics simultaneously.
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func (s *State) writeGridMeta(w http.ResponseWriter) {
	g, source := s.Grid()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"size":      g.Size(),
		"populated": g.Populated(),
		"source":    source,
		"title":     g.Title,
	})
}

// ToRGBA converts any decoded image into the RGBA layout the
// applicator expects.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
