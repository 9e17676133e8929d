package render

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
)

func newTestState(t *testing.T) (*RenderState, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return NewRenderState(*geo.NewViewport(1000, 700), style.Default(), logger), &logs
}

// recorder captures the scene it is asked to rasterize.
type recorder struct {
	scene Scene
	err   error
}

func (r *recorder) Rasterize(ctx context.Context, scene Scene) ([]byte, error) {
	r.scene = scene
	if r.err != nil {
		return nil, r.err
	}
	return []byte("img"), nil
}

func TestRenderExample(t *testing.T) {
	s, _ := newTestState(t)
	if s.Rendered() {
		t.Fatal("New state should be empty")
	}

	if err := s.Render(trip.Example()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	sc := s.Scene()
	if len(sc.Routes) != 9 || len(sc.Arrows) != 9 || len(sc.Nodes) != 10 || len(sc.Labels) != 10 {
		t.Errorf("Unexpected drawables: %d routes, %d arrows, %d nodes, %d labels",
			len(sc.Routes), len(sc.Arrows), len(sc.Nodes), len(sc.Labels))
	}
	if sc.Title != "Alaska Cruise & Land Tour" {
		t.Errorf("Unexpected title %q", sc.Title)
	}
	if len(sc.Legend) != 3 {
		t.Errorf("Legend should list rail, drive and cruise, got %d entries", len(sc.Legend))
	}

	// The view is fitted to the trip.
	vp := s.Viewport()
	for _, loc := range trip.Example().Locations {
		p := vp.Project(loc.LatLng())
		if p.X < FitPadding-1 || p.X > vp.Width-FitPadding+1 || p.Y < FitPadding-1 || p.Y > vp.Height-FitPadding+1 {
			t.Errorf("%s at %v is outside the fitted view", loc.Name, p)
		}
	}

	// Authored label positions are kept.
	for _, p := range s.Placed() {
		if p.Position.String() != p.Location.LabelPosition {
			t.Errorf("%s placed %v, authored %s", p.Location.Name, p.Position, p.Location.LabelPosition)
		}
	}

	// Start label comes first and uses the start color.
	if sc.Labels[0].Name != "Denali Ntl Park" || sc.Labels[0].Bg != "#22c55e" || sc.Labels[0].Fg != "#ffffff" {
		t.Errorf("Unexpected first label: %+v", sc.Labels[0])
	}
}

func TestRenderTwoPointDrive(t *testing.T) {
	s, _ := newTestState(t)
	data := &trip.TripData{
		Title: "Short hop",
		Locations: []trip.Location{
			{Name: "A", Lat: 0, Lng: 0, IsStart: true},
			{Name: "B", Lat: 0, Lng: 1, IsEnd: true},
		},
		Segments: []trip.Segment{{From: "A", To: "B", Transport: "drive"}},
	}
	if err := s.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	sc := s.Scene()
	if len(sc.Routes) != 1 || len(sc.Routes[0].Points) < 3 {
		t.Fatalf("Expected one curved route, got %+v", sc.Routes)
	}
	for _, p := range sc.Routes[0].Points {
		if p.Lat > 1e-9 {
			t.Fatalf("Route should bow to one side, found lat %.6f", p.Lat)
		}
	}
	if len(sc.Arrows) != 1 || sc.Arrows[0].Color != "#00b4d8" {
		t.Errorf("Expected one drive-colored arrow, got %+v", sc.Arrows)
	}
}

func TestRenderSkipsDanglingSegment(t *testing.T) {
	s, logs := newTestState(t)
	data := &trip.TripData{
		Locations: []trip.Location{{Name: "A", Lat: 60, Lng: -150}, {Name: "B", Lat: 61, Lng: -149}},
		Segments: []trip.Segment{
			{From: "A", To: "Ghost", Transport: "rail"},
			{From: "A", To: "B", Transport: "drive"},
		},
	}

	if err := s.Render(data); err != nil {
		t.Fatalf("Dangling reference must not fail the render: %v", err)
	}
	sc := s.Scene()
	if len(sc.Routes) != 1 || sc.Routes[0].Segment.To != "B" {
		t.Errorf("Expected only the A->B route, got %+v", sc.Routes)
	}
	if len(sc.Labels) != 2 {
		t.Errorf("Both labels should still be placed, got %d", len(sc.Labels))
	}
	if !strings.Contains(logs.String(), "Ghost") {
		t.Errorf("Expected a warning naming the missing location, got %q", logs.String())
	}
}

func TestRenderSkipsSegmentWithoutEndpoint(t *testing.T) {
	s, logs := newTestState(t)
	data, err := trip.ParseJSON([]byte(`{
		"title": "Partial",
		"locations": [
			{"name": "A", "lat": 60, "lng": -150},
			{"name": "B", "lat": 61, "lng": -149}
		],
		"segments": [
			{"from": "A", "to": "B", "transport": "drive"},
			{"from": "A", "transport": "drive"}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Render(data); err != nil {
		t.Fatalf("Segment without an endpoint must be skipped, got %v", err)
	}
	sc := s.Scene()
	if len(sc.Routes) != 1 || sc.Routes[0].Segment.To != "B" {
		t.Errorf("Expected only the A->B route, got %+v", sc.Routes)
	}
	if len(sc.Arrows) != 1 {
		t.Errorf("Expected one arrow, got %d", len(sc.Arrows))
	}
	if !strings.Contains(logs.String(), "skipping segment") {
		t.Errorf("Expected a skip warning, got %q", logs.String())
	}
}

func TestRenderInvalidKeepsState(t *testing.T) {
	s, _ := newTestState(t)
	if err := s.Render(trip.Example()); err != nil {
		t.Fatal(err)
	}

	bad := &trip.TripData{Locations: []trip.Location{{Name: "Nowhere", Lat: 123}}}
	if err := s.Render(bad); !errors.Is(err, trip.ErrInvalidTrip) {
		t.Errorf("Expected ErrInvalidTrip, got %v", err)
	}
	if err := s.Render(nil); !errors.Is(err, trip.ErrInvalidTrip) {
		t.Errorf("Expected ErrInvalidTrip for nil data, got %v", err)
	}
	if s.Data() == nil || s.Data().Title != "Alaska Cruise & Land Tour" || len(s.Placed()) != 10 {
		t.Error("Failed render should leave the previous map in place")
	}
}

func TestRenderEmptyTripKeepsViewport(t *testing.T) {
	s, _ := newTestState(t)
	before := s.Viewport()
	if err := s.Render(&trip.TripData{Title: "Empty"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if s.Viewport() != before {
		t.Error("Fitting an empty trip should not move the view")
	}
}

func TestClear(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	s.Clear()

	if s.Rendered() || len(s.Placed()) != 0 {
		t.Error("Clear should empty the state")
	}
	sc := s.Scene()
	if len(sc.Routes)+len(sc.Nodes)+len(sc.Labels)+len(sc.Arrows)+len(sc.Leaders) != 0 {
		t.Error("Cleared scene should have no drawables")
	}
}

func TestViewportSettledReplaysLayout(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	before := s.Placed()

	s.MoveViewport(func(v *geo.Viewport) { v.ZoomBy(1) })
	if s.Placed()[0].Rect != before[0].Rect {
		t.Fatal("Layout must not change before the viewport settles")
	}
	if sc := s.Scene(); len(sc.Labels) != 0 || len(sc.Leaders) != 0 || len(sc.Nodes) != 10 {
		t.Errorf("Scene of a moving view should drop labels and leaders, got %d labels, %d leaders, %d nodes",
			len(sc.Labels), len(sc.Leaders), len(sc.Nodes))
	}

	s.OnViewportSettled()
	if n := len(s.Scene().Labels); n != 10 {
		t.Errorf("Labels should return once settled, got %d", n)
	}
	after := s.Placed()
	if len(after) != len(before) {
		t.Fatalf("Replay changed the label count: %d vs %d", len(after), len(before))
	}
	if after[0].Rect == before[0].Rect {
		t.Error("Label rectangles should be recomputed for the new zoom")
	}
}

func TestExportLaysOutMovedViewport(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	before := s.Placed()

	s.MoveViewport(func(v *geo.Viewport) { v.Pan(120, -40) })
	rec := &recorder{}
	if _, err := s.Export(context.Background(), ExportOptions{IncludeLabels: true}, rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.scene.Labels) != 10 {
		t.Fatalf("Export should carry labels, got %d", len(rec.scene.Labels))
	}
	if rec.scene.Labels[0].Rect == before[0].Rect {
		t.Error("Exported labels should be placed for the moved viewport")
	}
	if got := s.Placed()[0].Rect; got != rec.scene.Labels[0].Rect {
		t.Errorf("Export layout should be kept: %+v vs %+v", got, rec.scene.Labels[0].Rect)
	}
}

func TestMoveLabelBuildsLeaderLine(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	if n := len(s.Leaders()); n != 0 {
		t.Fatalf("Adjacent labels should have no leader lines, got %d", n)
	}

	if err := s.MoveLabel("Anchorage", -200, 0); err != nil {
		t.Fatalf("MoveLabel failed: %v", err)
	}
	leaders := s.Leaders()
	if len(leaders) != 1 || leaders[0].Name != "Anchorage" {
		t.Fatalf("Expected a leader line for Anchorage, got %+v", leaders)
	}

	if err := s.MoveLabel("Atlantis", 1, 1); !errors.Is(err, ErrNoDrawable) {
		t.Errorf("Expected ErrNoDrawable, got %v", err)
	}

	// A layout replay places the label afresh.
	s.OnViewportSettled()
	if len(s.Leaders()) != 0 {
		t.Error("Replay should discard the manual move")
	}
}

func TestLabelVisibilityControlsLeaders(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	_ = s.MoveLabel("Sitka", 300, 0)
	placed := s.Placed()

	opts := DefaultViewOptions()
	opts.ShowLabels = false
	s.UpdateViewOptions(opts)

	if len(s.Leaders()) != 0 {
		t.Error("Hiding labels should drop leader lines")
	}
	vis := s.Visibility()
	if vis[LayerLabels] || vis[LayerLeaders] || !vis[LayerRoutes] {
		t.Errorf("Unexpected visibility %v", vis)
	}
	if sc := s.Scene(); len(sc.Labels) != 0 || len(sc.Leaders) != 0 {
		t.Error("Hidden labels should not reach the scene")
	}
	if got := s.Placed(); got[0].Rect != placed[0].Rect {
		t.Error("Toggling visibility must not re-run layout")
	}

	s.UpdateViewOptions(DefaultViewOptions())
	if leaders := s.Leaders(); len(leaders) != 1 || leaders[0].Name != "Sitka" {
		t.Errorf("Showing labels should rebuild leader lines, got %+v", leaders)
	}
}

func TestLayerToggles(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())

	s.UpdateViewOptions(ViewOptions{ShowBase: false, ShowRoutes: false, ShowNodes: true, ShowLabels: true, ShowArrows: false})
	sc := s.Scene()
	if sc.Base || len(sc.Grid) != 0 || len(sc.Routes) != 0 || len(sc.Arrows) != 0 || len(sc.Legend) != 0 {
		t.Error("Hidden layers leaked into the scene")
	}
	if len(sc.Nodes) != 10 || len(sc.Labels) != 10 {
		t.Error("Visible layers missing from the scene")
	}
}

func TestRemoveDrawables(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())

	if err := s.RemoveLabel("Seward"); err != nil {
		t.Fatalf("RemoveLabel failed: %v", err)
	}
	if len(s.Placed()) != 9 {
		t.Errorf("Expected 9 labels, got %d", len(s.Placed()))
	}
	if err := s.RemoveLabel("Seward"); !errors.Is(err, ErrNoDrawable) {
		t.Errorf("Expected ErrNoDrawable, got %v", err)
	}

	if err := s.RemoveArrow(0); err != nil {
		t.Fatalf("RemoveArrow failed: %v", err)
	}
	if err := s.RemoveArrow(42); !errors.Is(err, ErrNoDrawable) {
		t.Errorf("Expected ErrNoDrawable, got %v", err)
	}
	if len(s.Scene().Arrows) != 8 {
		t.Errorf("Expected 8 arrows, got %d", len(s.Scene().Arrows))
	}
}

func TestUpdateConfigReplays(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	_ = s.MoveLabel("Sitka", 300, 0)
	vp := s.Viewport()

	cfg := s.Config()
	if err := cfg.ApplyPreset("sunset"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateConfig(cfg); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}

	sc := s.Scene()
	for _, r := range sc.Routes {
		if r.Segment.Transport == "cruise" && r.Style.Color != "#dc2626" {
			t.Errorf("Cruise route should be recolored, got %s", r.Style.Color)
		}
	}
	if len(s.Leaders()) != 0 {
		t.Error("Config change should replay the render")
	}
	if s.Viewport() != vp {
		t.Error("Config change should keep the viewport")
	}

	bad := style.Default()
	bad.LabelStyle.FontSize = 0
	if err := s.UpdateConfig(bad); err == nil {
		t.Error("Invalid config should be rejected")
	}
}

func TestExportOverridesAndRestoresVisibility(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())

	opts := DefaultViewOptions()
	opts.ShowLabels = false
	s.UpdateViewOptions(opts)
	before := s.Visibility()

	rec := &recorder{}
	img, err := s.Export(context.Background(), ExportOptions{IncludeBase: false, IncludeRoutes: false, IncludeLabels: true}, rec)
	if err != nil || string(img) != "img" {
		t.Fatalf("Export failed: %v", err)
	}

	sc := rec.scene
	if sc.Base || len(sc.Routes) != 0 || len(sc.Nodes) != 0 || len(sc.Arrows) != 0 {
		t.Error("Export should drop base, routes, nodes and arrows")
	}
	if len(sc.Labels) != 10 {
		t.Errorf("Export should include labels hidden in the view, got %d", len(sc.Labels))
	}
	if s.Visibility() != before {
		t.Errorf("Visibility not restored: %v vs %v", s.Visibility(), before)
	}
}

func TestExportNodeAndArrowOverrides(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	yes, no := true, false

	tests := []struct {
		name              string
		opts              ExportOptions
		wantNodes, wantAr int
	}{
		{"follow routes", ExportOptions{IncludeRoutes: true}, 10, 9},
		{"routes without arrows", ExportOptions{IncludeRoutes: true, IncludeArrows: &no}, 10, 0},
		{"nodes only", ExportOptions{IncludeNodes: &yes}, 10, 0},
		{"arrows without routes", ExportOptions{IncludeArrows: &yes, IncludeNodes: &no}, 0, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			if _, err := s.Export(context.Background(), tt.opts, rec); err != nil {
				t.Fatal(err)
			}
			if len(rec.scene.Nodes) != tt.wantNodes || len(rec.scene.Arrows) != tt.wantAr {
				t.Errorf("Got %d nodes and %d arrows, want %d and %d",
					len(rec.scene.Nodes), len(rec.scene.Arrows), tt.wantNodes, tt.wantAr)
			}
		})
	}
}

func TestExportFailureRestoresVisibility(t *testing.T) {
	s, _ := newTestState(t)
	_ = s.Render(trip.Example())
	before := s.Visibility()

	boom := errors.New("rasterizer exploded")
	_, err := s.Export(context.Background(), ExportOptions{IncludeRoutes: true}, &recorder{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("Export error should wrap the rasterizer error, got %v", err)
	}
	if s.Visibility() != before {
		t.Errorf("Visibility not restored after failure: %v vs %v", s.Visibility(), before)
	}
}

func TestExportBeforeRender(t *testing.T) {
	s, _ := newTestState(t)
	if _, err := s.Export(context.Background(), ExportOptions{}, &recorder{}); !errors.Is(err, ErrNotRendered) {
		t.Errorf("Expected ErrNotRendered, got %v", err)
	}
}

func TestRestoreUsesSavedView(t *testing.T) {
	s, _ := newTestState(t)
	center := geo.LatLng{Lat: 58, Lng: -140}
	if err := s.Restore(trip.Example(), center, 6.5); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	vp := s.Viewport()
	if vp.Center != center || vp.Zoom != 6.5 {
		t.Errorf("Restore should keep the saved view, got %+v", vp)
	}
}

func TestRestoreClampsZoom(t *testing.T) {
	s, _ := newTestState(t)
	if err := s.Restore(trip.Example(), geo.LatLng{Lat: 58, Lng: -140}, 5000); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if z := s.Viewport().Zoom; z != geo.MaxZoom {
		t.Errorf("Zoom should clamp to %v, got %v", geo.MaxZoom, z)
	}
	for _, p := range s.Placed() {
		if math.IsNaN(p.Rect.Left) || math.IsInf(p.Rect.Left, 0) {
			t.Fatalf("Label %q placed at non-finite position %+v", p.Location.Name, p.Rect)
		}
	}
}
