package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/layout"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
)

// FitPadding is the pixel margin kept around the trip when fitting the view.
const FitPadding = 80.0

var (
	// ErrNotRendered is returned by operations that need a rendered trip.
	ErrNotRendered = errors.New("nothing rendered")
	// ErrNoDrawable is returned when a named or indexed drawable does not exist.
	ErrNoDrawable = errors.New("no such drawable")
)

// ViewOptions are the user-facing layer toggles. Leader lines follow labels.
type ViewOptions struct {
	ShowBase   bool `json:"showBase"`
	ShowRoutes bool `json:"showRoutes"`
	ShowNodes  bool `json:"showNodes"`
	ShowLabels bool `json:"showLabels"`
	ShowArrows bool `json:"showArrows"`
}

// DefaultViewOptions shows every layer.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{ShowBase: true, ShowRoutes: true, ShowNodes: true, ShowLabels: true, ShowArrows: true}
}

func (o ViewOptions) visibility() Visibility {
	var v Visibility
	v[LayerBase] = o.ShowBase
	v[LayerRoutes] = o.ShowRoutes
	v[LayerNodes] = o.ShowNodes
	v[LayerLabels] = o.ShowLabels
	v[LayerArrows] = o.ShowArrows
	v[LayerLeaders] = o.ShowLabels
	return v
}

// RenderState owns the drawables of one map. It moves between an empty and
// a rendered state; Render, Clear, UpdateConfig and UpdateViewOptions are
// its mutators. Every method is safe for concurrent use, and an export
// holds the state for its whole duration.
type RenderState struct {
	mu     sync.Mutex
	logger *slog.Logger

	viewport geo.Viewport
	config   *style.AppConfig
	view     ViewOptions
	visible  Visibility

	data  *trip.TripData
	nodes []trip.Location // de-duplicated

	routes  []Route
	arrows  []geo.Arrow
	placed  []layout.PlacedLabel
	leaders []layout.LeaderLine

	// unsettled is set while placed and leaders belong to an earlier
	// viewport.
	unsettled bool
}

// NewRenderState returns an empty state drawing into vp with cfg.
func NewRenderState(vp geo.Viewport, cfg *style.AppConfig, logger *slog.Logger) *RenderState {
	if cfg == nil {
		cfg = style.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	view := DefaultViewOptions()
	return &RenderState{
		logger:   logger,
		viewport: vp,
		config:   cfg.Clone(),
		view:     view,
		visible:  view.visibility(),
	}
}

// Render clears the map and draws data, then fits the viewport to its
// locations. Invalid data leaves the current map untouched.
func (s *RenderState) Render(data *trip.TripData) error {
	if err := checkTrip(data); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderLocked(data, true)
	return nil
}

// Restore draws data under a fixed centre and zoom, as when reopening a
// saved view.
func (s *RenderState) Restore(data *trip.TripData, center geo.LatLng, zoom float64) error {
	if err := checkTrip(data); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport.SetView(center, zoom)
	s.renderLocked(data, false)
	return nil
}

func checkTrip(data *trip.TripData) error {
	if data == nil {
		return fmt.Errorf("%w: no data", trip.ErrInvalidTrip)
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("%w: %w", trip.ErrInvalidTrip, err)
	}
	return nil
}

func (s *RenderState) renderLocked(data *trip.TripData, fit bool) {
	s.clearLocked()
	s.data = data
	s.nodes = trip.Dedupe(data.Locations)
	index := trip.Index(s.nodes)

	for i, seg := range data.Segments {
		from, okFrom := index[seg.From]
		to, okTo := index[seg.To]
		if !okFrom || !okTo {
			s.logger.Warn("skipping segment with unknown location",
				"segment", i, "from", seg.From, "to", seg.To)
			continue
		}

		rt := s.config.RouteStyle(seg.Transport)
		points := geo.GenerateCurve(from.LatLng(), to.LatLng())
		s.routes = append(s.routes, Route{Segment: seg, Points: points, Style: rt})

		if arrow, ok := geo.PlaceArrow(points, rt.Color, s.config.NodeStyle.ArrowSize); ok {
			s.arrows = append(s.arrows, arrow)
		}
	}

	if fit {
		s.viewport.FitBounds(trip.Coords(s.nodes), FitPadding)
	}
	s.layoutLocked()
	s.visible = s.view.visibility()
}

// layoutLocked replays label placement from scratch and rebuilds leader
// lines.
func (s *RenderState) layoutLocked() {
	engine := layout.NewEngine(s.config.LabelStyle.FontSize, s.config.NodeStyle.Size, s.logger)
	s.placed = engine.PlaceAll(&s.viewport, s.nodes)
	s.unsettled = false
	s.updateLeadersLocked()
}

func (s *RenderState) updateLeadersLocked() {
	s.leaders = nil
	if s.data == nil || !s.view.ShowLabels {
		return
	}
	s.leaders = layout.BuildLeaderLines(&s.viewport, s.placed, s.config.NodeStyle.Size)
}

// Clear removes every drawable and returns to the empty state.
func (s *RenderState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *RenderState) clearLocked() {
	s.data = nil
	s.nodes = nil
	s.routes = nil
	s.arrows = nil
	s.placed = nil
	s.leaders = nil
	s.unsettled = false
}

// Rendered reports whether a trip is drawn.
func (s *RenderState) Rendered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil
}

// Data returns the last rendered trip, or nil.
func (s *RenderState) Data() *trip.TripData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Config returns a copy of the current configuration.
func (s *RenderState) Config() *style.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// UpdateConfig replaces the configuration and replays the last render with
// it. The viewport is kept.
func (s *RenderState) UpdateConfig(cfg *style.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg.Clone()
	if s.data != nil {
		s.renderLocked(s.data, false)
	}
	return nil
}

// ViewOptions returns the current layer toggles.
func (s *RenderState) ViewOptions() ViewOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// UpdateViewOptions applies new layer toggles without re-running layout.
// Showing labels rebuilds leader lines; hiding them drops leader lines.
func (s *RenderState) UpdateViewOptions(opts ViewOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = opts
	s.visible = opts.visibility()
	s.updateLeadersLocked()
}

// Visibility returns the applied visibility of every layer.
func (s *RenderState) Visibility() Visibility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Viewport returns a copy of the current viewport.
func (s *RenderState) Viewport() geo.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// MoveViewport changes the viewport with fn. Label placement is not redone
// until OnViewportSettled; until then the scene carries no labels or
// leader lines.
func (s *RenderState) MoveViewport(fn func(v *geo.Viewport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.viewport)
	s.unsettled = s.data != nil
}

// OnViewportSettled replays label layout and leader lines for the current
// viewport. Routes and nodes are geographic and need no update.
func (s *RenderState) OnViewportSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return
	}
	s.layoutLocked()
}

// Placed returns the current label placements.
func (s *RenderState) Placed() []layout.PlacedLabel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]layout.PlacedLabel(nil), s.placed...)
}

// Leaders returns the current leader lines.
func (s *RenderState) Leaders() []layout.LeaderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]layout.LeaderLine(nil), s.leaders...)
}

// MoveLabel drags a placed label by dx, dy pixels and rebuilds leader
// lines. The next layout replay places it afresh.
func (s *RenderState) MoveLabel(name string, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.placed {
		if s.placed[i].Location.Name == name {
			s.placed[i].Rect = s.placed[i].Rect.Translate(dx, dy)
			s.updateLeadersLocked()
			return nil
		}
	}
	return fmt.Errorf("label %q: %w", name, ErrNoDrawable)
}

// RemoveLabel drops a placed label until the next layout replay.
func (s *RenderState) RemoveLabel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.placed {
		if s.placed[i].Location.Name == name {
			s.placed = append(s.placed[:i], s.placed[i+1:]...)
			s.updateLeadersLocked()
			return nil
		}
	}
	return fmt.Errorf("label %q: %w", name, ErrNoDrawable)
}

// RemoveArrow drops the arrow at index until the next render.
func (s *RenderState) RemoveArrow(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.arrows) {
		return fmt.Errorf("arrow %d: %w", index, ErrNoDrawable)
	}
	s.arrows = append(s.arrows[:index], s.arrows[index+1:]...)
	return nil
}

// Scene returns a snapshot of the visible layers.
func (s *RenderState) Scene() Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sceneLocked()
}

func (s *RenderState) sceneLocked() Scene {
	sc := Scene{
		Viewport:    s.viewport,
		Base:        s.visible[LayerBase],
		Background:  BaseColor,
		LegendStyle: s.config.LegendStyle,
	}
	if s.data == nil {
		return sc
	}
	sc.Title = s.data.Title

	if sc.Base {
		sc.Grid = Graticule(s.viewport)
	}
	if s.visible[LayerRoutes] {
		sc.Routes = append(sc.Routes, s.routes...)
		sc.Legend = s.config.LegendEntries(s.data.Segments)
	}
	if s.visible[LayerArrows] {
		sc.Arrows = append(sc.Arrows, s.arrows...)
	}
	if s.visible[LayerNodes] {
		for _, loc := range s.nodes {
			sc.Nodes = append(sc.Nodes, Node{
				Location:    loc,
				Color:       s.config.NodeColor(loc),
				Radius:      s.config.NodeStyle.Size,
				BorderWidth: s.config.NodeStyle.BorderWidth,
			})
		}
	}
	if s.unsettled {
		return sc
	}
	if s.visible[LayerLabels] {
		for _, p := range s.placed {
			bg, fg := s.config.LabelColors(p.Location)
			sc.Labels = append(sc.Labels, Label{
				Name:     p.Location.Name,
				Rect:     p.Rect,
				Position: p.Position,
				Bg:       bg,
				Fg:       fg,
				FontSize: s.config.LabelStyle.FontSize,
			})
		}
	}
	if s.visible[LayerLeaders] {
		if s.leaders != nil {
			sc.Leaders = append(sc.Leaders, s.leaders...)
		} else {
			// Hidden in the view but requested for export.
			sc.Leaders = layout.BuildLeaderLines(&s.viewport, s.placed, s.config.NodeStyle.Size)
		}
	}
	return sc
}

// ExportOptions select the layers of an exported image. Nodes and arrows
// follow routes unless set explicitly; leader lines follow labels.
type ExportOptions struct {
	IncludeBase   bool  `json:"includeBase"`
	IncludeRoutes bool  `json:"includeRoutes"`
	IncludeNodes  *bool `json:"includeNodes,omitempty"`
	IncludeLabels bool  `json:"includeLabels"`
	IncludeArrows *bool `json:"includeArrows,omitempty"`
}

func orDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func (o ExportOptions) visibility() Visibility {
	var v Visibility
	v[LayerBase] = o.IncludeBase
	v[LayerRoutes] = o.IncludeRoutes
	v[LayerNodes] = orDefault(o.IncludeNodes, o.IncludeRoutes)
	v[LayerArrows] = orDefault(o.IncludeArrows, o.IncludeRoutes)
	v[LayerLabels] = o.IncludeLabels
	v[LayerLeaders] = o.IncludeLabels
	return v
}

// Rasterizer turns a scene into an encoded image.
type Rasterizer interface {
	Rasterize(ctx context.Context, scene Scene) ([]byte, error)
}

// Export rasterizes the map with the layers chosen by opts. Layer
// visibility is overridden for the duration of the export and restored
// afterwards, whether or not rasterization succeeds. No render or layout
// can run while an export is in progress.
func (s *RenderState) Export(ctx context.Context, opts ExportOptions, r Rasterizer) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNotRendered
	}
	if s.unsettled {
		s.layoutLocked()
	}

	saved := s.visible
	defer func() { s.visible = saved }()
	s.visible = opts.visibility()

	img, err := r.Rasterize(ctx, s.sceneLocked())
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}
	return img, nil
}
