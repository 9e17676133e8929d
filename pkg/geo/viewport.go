package geo

import "math"

// Projection maps geographic coordinates to viewport pixels and back.
// A Projection is only valid for one pan/zoom state; callers must not keep
// pixel results across a viewport change.
type Projection interface {
	Project(ll LatLng) Point
	Unproject(p Point) LatLng
}

const (
	tileSize    = 256.0
	maxLatitude = 85.0511287798

	MinZoom = 0.0
	MaxZoom = 19.0
)

// Viewport is a Web Mercator view of the map: a centre, a fractional zoom
// level and a pixel size.
type Viewport struct {
	Center        LatLng
	Zoom          float64
	Width, Height float64
}

// NewViewport returns a viewport of the given pixel size centred on the
// continental United States, the default view of the map.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{
		Center: LatLng{Lat: 40, Lng: -95},
		Zoom:   4,
		Width:  width,
		Height: height,
	}
}

func worldSize(zoom float64) float64 {
	return tileSize * math.Pow(2, zoom)
}

// world returns the absolute Mercator pixel of ll at the given zoom.
func world(ll LatLng, zoom float64) Point {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, ll.Lat))
	size := worldSize(zoom)
	sin := math.Sin(lat * math.Pi / 180)
	return Point{
		X: (ll.Lng + 180) / 360 * size,
		Y: (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * size,
	}
}

func unworld(p Point, zoom float64) LatLng {
	size := worldSize(zoom)
	lng := p.X/size*360 - 180
	n := math.Pi - 2*math.Pi*p.Y/size
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	return LatLng{Lat: lat, Lng: lng}
}

func (v *Viewport) origin() Point {
	c := world(v.Center, v.Zoom)
	return Point{X: c.X - v.Width/2, Y: c.Y - v.Height/2}
}

// Project returns the viewport pixel of ll.
func (v *Viewport) Project(ll LatLng) Point {
	w := world(ll, v.Zoom)
	o := v.origin()
	return Point{X: w.X - o.X, Y: w.Y - o.Y}
}

// Unproject returns the coordinate under viewport pixel p.
func (v *Viewport) Unproject(p Point) LatLng {
	o := v.origin()
	return unworld(Point{X: p.X + o.X, Y: p.Y + o.Y}, v.Zoom)
}

// Pan moves the view by dx, dy pixels.
func (v *Viewport) Pan(dx, dy float64) {
	v.Center = v.Unproject(Point{X: v.Width/2 + dx, Y: v.Height/2 + dy})
}

// ZoomBy changes the zoom level by delta, keeping the centre fixed.
func (v *Viewport) ZoomBy(delta float64) {
	v.Zoom = clampZoom(v.Zoom + delta)
}

// SetView moves the view to center at zoom. The zoom is clamped to the
// supported range.
func (v *Viewport) SetView(center LatLng, zoom float64) {
	v.Center = center
	v.Zoom = clampZoom(zoom)
}

// Resize changes the pixel size of the view, keeping the centre fixed.
func (v *Viewport) Resize(width, height float64) {
	v.Width = width
	v.Height = height
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// FitBounds centres the view on coords and picks the largest zoom at which
// they all fit inside the viewport minus padding on every side. It does
// nothing when coords is empty.
func (v *Viewport) FitBounds(coords []LatLng, padding float64) {
	b, ok := BoundsOf(coords)
	if !ok {
		return
	}

	nw := world(LatLng{Lat: b.North, Lng: b.West}, 0)
	se := world(LatLng{Lat: b.South, Lng: b.East}, 0)
	spanX := se.X - nw.X
	spanY := se.Y - nw.Y

	availW := math.Max(1, v.Width-2*padding)
	availH := math.Max(1, v.Height-2*padding)

	zoom := MaxZoom
	if spanX > 0 {
		zoom = math.Min(zoom, math.Log2(availW/spanX))
	}
	if spanY > 0 {
		zoom = math.Min(zoom, math.Log2(availH/spanY))
	}
	v.Zoom = clampZoom(zoom)

	mid := Point{X: (nw.X + se.X) / 2, Y: (nw.Y + se.Y) / 2}
	v.Center = unworld(mid, 0)
}
