// Package render orchestrates trip map rendering: it turns trip data into
// layered drawables, keeps label placement in step with the viewport, and
// hands visible layers to the SVG and PNG back ends.
package render

import (
	"math"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/layout"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
)

// Layer identifies a drawable group.
type Layer int

const (
	LayerBase Layer = iota
	LayerRoutes
	LayerNodes
	LayerLabels
	LayerArrows
	LayerLeaders
	numLayers
)

func (l Layer) String() string {
	switch l {
	case LayerBase:
		return "base"
	case LayerRoutes:
		return "routes"
	case LayerNodes:
		return "nodes"
	case LayerLabels:
		return "labels"
	case LayerArrows:
		return "arrows"
	case LayerLeaders:
		return "leaders"
	}
	return "unknown"
}

// Visibility is the shown/hidden state of every layer.
type Visibility [numLayers]bool

// Route is a drawn segment.
type Route struct {
	Segment trip.Segment
	Points  []geo.LatLng
	Style   style.RouteType
}

// Dashed reports whether the route is stroked with a dash pattern.
func (r Route) Dashed() bool {
	return r.Style.LineStyle == style.Dashed
}

// Node is a drawn location marker. Radius excludes the border.
type Node struct {
	Location    trip.Location
	Color       string
	Radius      float64
	BorderWidth float64
}

// Label is a drawn location label.
type Label struct {
	Name     string
	Rect     layout.LabelRect
	Position layout.Direction
	Bg, Fg   string
	FontSize float64
}

// GridLine is a graticule line of the base layer, in pixels.
type GridLine struct {
	From, To geo.Point
}

// Scene is a snapshot of the visible drawables, ready for a back end.
// Hidden layers are left empty.
type Scene struct {
	Title      string
	Viewport   geo.Viewport
	Base       bool
	Background string
	Grid       []GridLine

	Routes  []Route
	Nodes   []Node
	Labels  []Label
	Arrows  []geo.Arrow
	Leaders []layout.LeaderLine

	Legend      []style.RouteType
	LegendStyle style.LegendStyle
}

// Base layer colors.
const (
	BaseColor  = "#f2efe9"
	GridColor  = "#d5d0c8"
	LeaderGrey = "#666666"
)

var gridSteps = []float64{30, 15, 10, 5, 2, 1, 0.5, 0.25, 0.1, 0.05, 0.01}

// minGridSpacing is the smallest pixel distance between graticule lines.
const minGridSpacing = 80.0

// Graticule returns the meridians and parallels crossing the viewport, at
// the finest step that keeps lines at least minGridSpacing apart.
func Graticule(vp geo.Viewport) []GridLine {
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}

	pxPerDeg := 256 * math.Pow(2, vp.Zoom) / 360
	step := gridSteps[0]
	for _, s := range gridSteps {
		if s*pxPerDeg < minGridSpacing {
			break
		}
		step = s
	}

	nw := vp.Unproject(geo.Point{X: 0, Y: 0})
	se := vp.Unproject(geo.Point{X: vp.Width, Y: vp.Height})

	var lines []GridLine
	for lng := math.Ceil(nw.Lng/step) * step; lng <= se.Lng; lng += step {
		x := vp.Project(geo.LatLng{Lat: nw.Lat, Lng: lng}).X
		lines = append(lines, GridLine{From: geo.Point{X: x, Y: 0}, To: geo.Point{X: x, Y: vp.Height}})
	}
	for lat := math.Ceil(se.Lat/step) * step; lat <= nw.Lat; lat += step {
		y := vp.Project(geo.LatLng{Lat: lat, Lng: nw.Lng}).Y
		lines = append(lines, GridLine{From: geo.Point{X: 0, Y: y}, To: geo.Point{X: vp.Width, Y: y}})
	}
	return lines
}
