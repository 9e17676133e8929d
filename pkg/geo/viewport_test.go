package geo

import (
	"math"
	"testing"
)

func TestViewportRoundTrip(t *testing.T) {
	v := NewViewport(800, 600)

	center := v.Project(v.Center)
	if math.Abs(center.X-400) > 1e-6 || math.Abs(center.Y-300) > 1e-6 {
		t.Errorf("Centre should project to the middle, got %v", center)
	}

	for _, ll := range []LatLng{{61.2181, -149.9003}, {49.2827, -123.1207}, {0, 0}} {
		got := v.Unproject(v.Project(ll))
		if math.Abs(got.Lat-ll.Lat) > 1e-9 || math.Abs(got.Lng-ll.Lng) > 1e-9 {
			t.Errorf("Round trip of %v gave %v", ll, got)
		}
	}
}

func TestViewportPanAndZoom(t *testing.T) {
	v := NewViewport(800, 600)
	target := v.Unproject(Point{500, 300})

	v.Pan(100, 0)
	p := v.Project(target)
	if math.Abs(p.X-400) > 1e-6 || math.Abs(p.Y-300) > 1e-6 {
		t.Errorf("After panning, target should be centred, got %v", p)
	}

	v.ZoomBy(100)
	if v.Zoom != MaxZoom {
		t.Errorf("Zoom should clamp to %v, got %v", MaxZoom, v.Zoom)
	}
	v.ZoomBy(-100)
	if v.Zoom != MinZoom {
		t.Errorf("Zoom should clamp to %v, got %v", MinZoom, v.Zoom)
	}
}

func TestSetViewClampsZoom(t *testing.T) {
	tests := []struct {
		zoom, want float64
	}{
		{7.5, 7.5},
		{5000, MaxZoom},
		{-3, MinZoom},
	}
	for _, tt := range tests {
		v := NewViewport(800, 600)
		v.SetView(LatLng{Lat: 61, Lng: -150}, tt.zoom)
		if v.Zoom != tt.want {
			t.Errorf("SetView zoom %v: got %v, want %v", tt.zoom, v.Zoom, tt.want)
		}
		p := v.Project(LatLng{Lat: 61.5, Lng: -149})
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			t.Errorf("SetView zoom %v: projection not finite: %v", tt.zoom, p)
		}
	}
}

func TestFitBounds(t *testing.T) {
	v := NewViewport(800, 600)
	before := *v

	v.FitBounds(nil, 80)
	if *v != before {
		t.Errorf("FitBounds on no points should not move the view")
	}

	coords := []LatLng{
		{63.1148, -151.1926},
		{61.2181, -149.9003},
		{55.3422, -131.6461},
		{49.2827, -123.1207},
	}
	v.FitBounds(coords, 80)

	for _, c := range coords {
		p := v.Project(c)
		if p.X < 80-1e-6 || p.X > 720+1e-6 || p.Y < 80-1e-6 || p.Y > 520+1e-6 {
			t.Errorf("%v projects to %v, outside the padded viewport", c, p)
		}
	}
}
