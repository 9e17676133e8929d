package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/layout"
	"github.com/ha1tch/tripmap/pkg/render"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
	"github.com/ha1tch/tripmap/pkg/viewstore"
)

// ViewStore defines the saved view operations the service needs
type ViewStore interface {
	Save(ctx context.Context, name string, data *trip.TripData, center geo.LatLng, zoom float64, cfg *style.AppConfig) (viewstore.View, error)
	List(ctx context.Context) ([]viewstore.View, error)
	Get(ctx context.Context, id string) (viewstore.View, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, r io.Reader) (viewstore.View, error)
}

// Server handles HTTP requests for map rendering and saved views
type Server struct {
	store  ViewStore
	style  *style.AppConfig
	cfg    *Config
	logger *slog.Logger
}

// NewServer creates a server rendering with appCfg by default
func NewServer(store ViewStore, appCfg *style.AppConfig, cfg *Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, style: appCfg, cfg: cfg, logger: logger}
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// RenderRequest is the body of POST /api/render and POST /api/layout.
// Center and zoom are optional; without them the view is fitted to the trip.
type RenderRequest struct {
	Trip    json.RawMessage       `json:"trip"`
	Width   float64               `json:"width"`
	Height  float64               `json:"height"`
	Preset  string                `json:"preset,omitempty"`
	Config  json.RawMessage       `json:"config,omitempty"` // merged over the server style
	Center  *geo.LatLng           `json:"center,omitempty"`
	Zoom    *float64              `json:"zoom,omitempty"`
	Include *render.ExportOptions `json:"include,omitempty"`

	base *style.AppConfig // replaces the server style, as for saved views
}

// SaveViewRequest is the body of POST /api/views
type SaveViewRequest struct {
	RenderRequest
	Name string `json:"name"`
}

// PlacedLabelResponse is one label of a layout response
type PlacedLabelResponse struct {
	Name     string           `json:"name"`
	Position layout.Direction `json:"position"`
	Left     float64          `json:"left"`
	Top      float64          `json:"top"`
	Right    float64          `json:"right"`
	Bottom   float64          `json:"bottom"`
}

// LeaderLineResponse is one leader line of a layout response
type LeaderLineResponse struct {
	Name string    `json:"name"`
	From geo.Point `json:"from"`
	To   geo.Point `json:"to"`
}

// LayoutResponse is the JSON response structure for POST /api/layout
type LayoutResponse struct {
	Center   geo.LatLng            `json:"center"`
	Zoom     float64               `json:"zoom"`
	Labels   []PlacedLabelResponse `json:"labels"`
	Leaders  []LeaderLineResponse  `json:"leaders"`
	Overlaps int                   `json:"overlaps"`
	Skipped  []string              `json:"skipped,omitempty"`
}

// ViewSummary is one entry of GET /api/views
type ViewSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
	Title     string `json:"title"`
	Locations int    `json:"locations"`
}

// PresetResponse is one entry of GET /api/presets
type PresetResponse struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Routes style.RouteColors `json:"routes"`
	Nodes  style.NodeColors  `json:"nodes"`
}

const (
	defaultWidth  = 1200.0
	defaultHeight = 800.0
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = map[string]any{"internal": err.Error()}
	}
	writeJSON(w, status, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, trip.ErrInvalidTrip), errors.Is(err, viewstore.ErrInvalidView), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, viewstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// appConfig resolves the style of a request: an explicit config, else the
// server default, with an optional preset on top.
func (s *Server) appConfig(req *RenderRequest) (*style.AppConfig, error) {
	cfg := s.style.Clone()
	if req.base != nil {
		cfg = req.base.Clone()
	}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, cfg); err != nil {
			return nil, fmt.Errorf("%w: config: %w", errBadRequest, err)
		}
	}
	if req.Preset != "" {
		if err := cfg.ApplyPreset(req.Preset); err != nil {
			return nil, fmt.Errorf("%w: %w", errBadRequest, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return cfg, nil
}

// newState renders the trip of req into a fresh render state.
func (s *Server) newState(req *RenderRequest) (*render.RenderState, *trip.TripData, error) {
	if len(req.Trip) == 0 {
		return nil, nil, fmt.Errorf("%w: missing trip", trip.ErrInvalidTrip)
	}
	data, err := trip.ParseJSON(req.Trip)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := s.appConfig(req)
	if err != nil {
		return nil, nil, err
	}

	w, h := req.Width, req.Height
	if w == 0 {
		w = defaultWidth
	}
	if h == 0 {
		h = defaultHeight
	}
	if w < 0 || h < 0 || w > s.cfg.MaxDimension || h > s.cfg.MaxDimension {
		return nil, nil, fmt.Errorf("%w: size %gx%g out of range", errBadRequest, w, h)
	}

	state := render.NewRenderState(*geo.NewViewport(w, h), cfg, s.logger)
	if req.Center != nil && req.Zoom != nil {
		err = state.Restore(data, *req.Center, *req.Zoom)
	} else {
		err = state.Render(data)
	}
	if err != nil {
		return nil, nil, err
	}
	return state, data, nil
}

// rasterizer picks the back end from the format query parameter.
func (s *Server) rasterizer(format string) (render.Rasterizer, string, error) {
	switch format {
	case "", "svg":
		return render.SVGRasterizer{Options: render.DefaultSVGOptions()}, "image/svg+xml", nil
	case "png":
		opts := render.DefaultPNGOptions()
		opts.MinSide = s.cfg.PNGMinSide
		return render.NewPNGRasterizer(opts), "image/png", nil
	default:
		return nil, "", fmt.Errorf("%w: unknown format %q", errBadRequest, format)
	}
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, state *render.RenderState, include *render.ExportOptions) {
	rast, contentType, err := s.rasterizer(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, statusFor(err), "Invalid format", err)
		return
	}

	opts := render.ExportOptions{IncludeBase: true, IncludeRoutes: true, IncludeLabels: true}
	if include != nil {
		opts = *include
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()
	img, err := state.Export(ctx, opts, rast)
	if err != nil {
		writeError(w, statusFor(err), "Failed to render map", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// Render handles POST /api/render
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, statusFor(err), "Invalid request body", err)
		return
	}
	state, _, err := s.newState(&req)
	if err != nil {
		writeError(w, statusFor(err), "Failed to render trip", err)
		return
	}
	s.export(w, r, state, req.Include)
}

// Layout handles POST /api/layout
// Returns label placements and leader lines without drawing anything
func (s *Server) Layout(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, statusFor(err), "Invalid request body", err)
		return
	}
	state, data, err := s.newState(&req)
	if err != nil {
		writeError(w, statusFor(err), "Failed to lay out trip", err)
		return
	}

	vp := state.Viewport()
	placed := state.Placed()
	resp := LayoutResponse{
		Center:   vp.Center,
		Zoom:     vp.Zoom,
		Labels:   make([]PlacedLabelResponse, 0, len(placed)),
		Leaders:  []LeaderLineResponse{},
		Overlaps: layout.Overlaps(placed),
	}
	for _, p := range placed {
		resp.Labels = append(resp.Labels, PlacedLabelResponse{
			Name:     p.Location.Name,
			Position: p.Position,
			Left:     p.Rect.Left,
			Top:      p.Rect.Top,
			Right:    p.Rect.Right,
			Bottom:   p.Rect.Bottom,
		})
	}
	for _, l := range state.Leaders() {
		resp.Leaders = append(resp.Leaders, LeaderLineResponse{Name: l.Name, From: l.From, To: l.To})
	}
	for _, d := range data.Dangling() {
		resp.Skipped = append(resp.Skipped, d.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Presets handles GET /api/presets
func (s *Server) Presets(w http.ResponseWriter, r *http.Request) {
	var out []PresetResponse
	for _, p := range style.Presets() {
		out = append(out, PresetResponse{ID: p.ID, Name: p.Name, Routes: p.Routes, Nodes: p.Nodes})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListViews handles GET /api/views
func (s *Server) ListViews(w http.ResponseWriter, r *http.Request) {
	views, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), "Failed to list views", err)
		return
	}
	out := make([]ViewSummary, 0, len(views))
	for _, v := range views {
		out = append(out, ViewSummary{
			ID:        v.ID,
			Name:      v.Name,
			Timestamp: v.Timestamp,
			Title:     v.TripData.Title,
			Locations: len(v.TripData.Locations),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// SaveView handles POST /api/views
// Without centre and zoom the view fitted to the trip is saved
func (s *Server) SaveView(w http.ResponseWriter, r *http.Request) {
	var req SaveViewRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, statusFor(err), "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	state, data, err := s.newState(&req.RenderRequest)
	if err != nil {
		writeError(w, statusFor(err), "Failed to render trip", err)
		return
	}
	vp := state.Viewport()

	view, err := s.store.Save(r.Context(), req.Name, data, vp.Center, vp.Zoom, state.Config())
	if err != nil {
		writeError(w, statusFor(err), "Failed to save view", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ImportView handles POST /api/views/import
func (s *Server) ImportView(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	view, err := s.store.Import(r.Context(), r.Body)
	if err != nil {
		writeError(w, statusFor(err), "Failed to import view", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetView handles GET /api/views/{id}
// The response is a view file suitable for import
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	view, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Failed to get view", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view.FileName()))
	w.WriteHeader(http.StatusOK)
	viewstore.Encode(w, view)
}

// DeleteView handles DELETE /api/views/{id}
func (s *Server) DeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), "Failed to delete view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderView handles GET /api/views/{id}/render
// Optional width and height query parameters size the image
func (s *Server) RenderView(w http.ResponseWriter, r *http.Request) {
	view, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Failed to get view", err)
		return
	}

	req := RenderRequest{base: view.Config, Center: &view.Center, Zoom: &view.Zoom}
	q := r.URL.Query()
	if req.Width, err = queryFloat(q.Get("width")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid width", err)
		return
	}
	if req.Height, err = queryFloat(q.Get("height")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid height", err)
		return
	}
	req.Trip, err = trip.ToJSON(view.TripData, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode trip", err)
		return
	}

	state, _, err := s.newState(&req)
	if err != nil {
		writeError(w, statusFor(err), "Failed to render view", err)
		return
	}
	s.export(w, r, state, nil)
}

func queryFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Health handles GET /health with a database check
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.store.List(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "error",
			"database":  "disconnected",
			"timestamp": time.Now().UTC(),
			"error":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}
