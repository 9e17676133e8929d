// Package geo provides geographic and screen-space primitives for trip maps:
// great-circle math, curved route generation, arrow placement and the
// projection between coordinates and viewport pixels.
package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0088

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point is a pixel position in viewport space. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two pixel points.
func Dist(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func (ll LatLng) s2() s2.LatLng {
	return s2.LatLngFromDegrees(ll.Lat, ll.Lng)
}

func fromS2(ll s2.LatLng) LatLng {
	return LatLng{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b LatLng) float64 {
	return a.s2().Distance(b.s2()).Radians() * EarthRadiusKm
}

// Bearing returns the initial bearing from a to b in degrees, in the range
// (-180, 180], measured clockwise from north.
func Bearing(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Atan2(y, x) * 180 / math.Pi
}

// Midpoint returns the point halfway along the great circle from a to b.
func Midpoint(a, b LatLng) LatLng {
	mid := s2.Interpolate(0.5, s2.PointFromLatLng(a.s2()), s2.PointFromLatLng(b.s2()))
	return fromS2(s2.LatLngFromPoint(mid))
}

// Destination returns the point reached by travelling distKm kilometres from
// start along the given bearing (degrees clockwise from north).
func Destination(start LatLng, distKm, bearing float64) LatLng {
	p := start.s2()
	lat := p.Lat.Radians()
	lng := p.Lng.Radians()
	brg := bearing * math.Pi / 180
	ang := distKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat)*math.Cos(ang) + math.Cos(lat)*math.Sin(ang)*math.Cos(brg))
	lng2 := lng + math.Atan2(
		math.Sin(brg)*math.Sin(ang)*math.Cos(lat),
		math.Cos(ang)-math.Sin(lat)*math.Sin(lat2),
	)

	out := s2.LatLng{Lat: s1.Angle(lat2), Lng: s1.Angle(lng2)}.Normalized()
	return fromS2(out)
}

// Bounds is a geographic bounding box.
type Bounds struct {
	South, West, North, East float64
}

// BoundsOf returns the bounding box of the given coordinates. ok is false
// when coords is empty.
func BoundsOf(coords []LatLng) (b Bounds, ok bool) {
	if len(coords) == 0 {
		return Bounds{}, false
	}
	b = Bounds{South: coords[0].Lat, North: coords[0].Lat, West: coords[0].Lng, East: coords[0].Lng}
	for _, c := range coords[1:] {
		b.South = math.Min(b.South, c.Lat)
		b.North = math.Max(b.North, c.Lat)
		b.West = math.Min(b.West, c.Lng)
		b.East = math.Max(b.East, c.Lng)
	}
	return b, true
}

// Center returns the centre of the bounding box.
func (b Bounds) Center() LatLng {
	return LatLng{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
}
