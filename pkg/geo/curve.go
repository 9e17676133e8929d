package geo

import "math"

const (
	// CurveBow is the perpendicular offset of the route control point as a
	// fraction of the great-circle distance between the endpoints.
	CurveBow = 0.15

	// CurveSamples is the number of samples taken per spline segment.
	CurveSamples = 64

	// arrowSpan is how many samples either side of the midpoint are used to
	// estimate the arrow direction.
	arrowSpan = 5
)

// GenerateCurve returns a smooth route from one coordinate to another that
// bows to the right of the direction of travel. The curve passes through a
// control point offset from the great-circle midpoint by CurveBow of the
// distance, on bearing+90°. Points are returned in travel order.
func GenerateCurve(from, to LatLng) []LatLng {
	dist := Distance(from, to)
	bearing := Bearing(from, to)
	control := Destination(Midpoint(from, to), dist*CurveBow, bearing+90)

	// The spline is fitted in the lng/lat plane.
	waypoints := []Point{
		{X: from.Lng, Y: from.Lat},
		{X: control.Lng, Y: control.Lat},
		{X: to.Lng, Y: to.Lat},
	}
	samples := SampleSpline(FitSpline(waypoints, DefaultSharpness), CurveSamples)

	out := make([]LatLng, len(samples))
	for i, p := range samples {
		out[i] = LatLng{Lat: p.Y, Lng: p.X}
	}
	return out
}

// arrowPath is the arrow glyph outline on a 24x24 box, pointing north.
var arrowPath = []Point{{12, 2}, {22, 18}, {12, 14}, {2, 18}}

// Arrow is a direction marker placed on a route.
type Arrow struct {
	At    LatLng
	Angle float64 // degrees clockwise from north
	Size  float64 // glyph edge length in pixels
	Color string
}

// PlaceArrow positions a direction arrow at the middle of a route. The
// heading is measured between samples a few steps either side of the
// midpoint, clamped to the ends of the route. ok is false when the route has
// fewer than two points.
func PlaceArrow(points []LatLng, color string, size float64) (a Arrow, ok bool) {
	if len(points) < 2 {
		return Arrow{}, false
	}

	idx := len(points) / 2
	p1 := points[max(0, idx-arrowSpan)]
	p2 := points[min(len(points)-1, idx+arrowSpan)]

	return Arrow{
		At:    points[idx],
		Angle: Bearing(p1, p2),
		Size:  size,
		Color: color,
	}, true
}

// Glyph returns the arrow outline as pixel offsets from the arrow's anchor.
// The glyph is centred on the anchor so rotation does not displace it.
func (a Arrow) Glyph() []Point {
	scale := a.Size / 24
	rad := a.Angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	out := make([]Point, len(arrowPath))
	for i, p := range arrowPath {
		x := (p.X - 12) * scale
		y := (p.Y - 12) * scale
		// clockwise rotation in y-down screen space
		out[i] = Point{X: x*cos - y*sin, Y: x*sin + y*cos}
	}
	return out
}
