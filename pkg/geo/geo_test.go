package geo

import (
	"math"
	"testing"
)

func TestDistanceAndBearing(t *testing.T) {
	a := LatLng{0, 0}
	b := LatLng{0, 1}

	d := Distance(a, b)
	if math.Abs(d-111.19) > 0.1 {
		t.Errorf("Distance expected ~111.19km, got %.3f", d)
	}

	if brg := Bearing(a, b); math.Abs(brg-90) > 1e-6 {
		t.Errorf("Bearing east expected 90, got %.6f", brg)
	}
	if brg := Bearing(b, a); math.Abs(brg+90) > 1e-6 {
		t.Errorf("Bearing west expected -90, got %.6f", brg)
	}
	if brg := Bearing(a, LatLng{1, 0}); math.Abs(brg) > 1e-6 {
		t.Errorf("Bearing north expected 0, got %.6f", brg)
	}
}

func TestMidpoint(t *testing.T) {
	m := Midpoint(LatLng{0, 0}, LatLng{0, 2})
	if math.Abs(m.Lat) > 1e-9 || math.Abs(m.Lng-1) > 1e-9 {
		t.Errorf("Midpoint expected (0,1), got (%.6f, %.6f)", m.Lat, m.Lng)
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	start := LatLng{61.2181, -149.9003}
	end := LatLng{62.3209, -150.1066}

	got := Destination(start, Distance(start, end), Bearing(start, end))
	if math.Abs(got.Lat-end.Lat) > 1e-6 || math.Abs(got.Lng-end.Lng) > 1e-6 {
		t.Errorf("Destination expected (%.6f, %.6f), got (%.6f, %.6f)",
			end.Lat, end.Lng, got.Lat, got.Lng)
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Error("BoundsOf(nil) should report !ok")
	}

	b, ok := BoundsOf([]LatLng{{10, 20}, {-5, 30}, {3, -40}})
	if !ok {
		t.Fatal("BoundsOf should report ok")
	}
	want := Bounds{South: -5, West: -40, North: 10, East: 30}
	if b != want {
		t.Errorf("Bounds expected %+v, got %+v", want, b)
	}
	if c := b.Center(); c.Lat != 2.5 || c.Lng != -5 {
		t.Errorf("Center expected (2.5,-5), got %+v", c)
	}
}
