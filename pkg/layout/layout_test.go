package layout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/trip"
)

// flatProjection maps lng to x and lat to y, one pixel per degree.
type flatProjection struct{}

func (flatProjection) Project(ll geo.LatLng) geo.Point   { return geo.Point{X: ll.Lng, Y: ll.Lat} }
func (flatProjection) Unproject(p geo.Point) geo.LatLng { return geo.LatLng{Lat: p.Y, Lng: p.X} }

func at(name string, x, y float64) trip.Location {
	return trip.Location{Name: name, Lat: y, Lng: x}
}

func TestDirectionRoundTrip(t *testing.T) {
	for _, d := range Candidates {
		got, ok := ParseDirection(d.String())
		if !ok || got != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.String(), got, ok)
		}
	}

	if d, ok := ParseDirection("middle"); ok || d != Right {
		t.Errorf("Unknown tag should fall back to right, got %v, %v", d, ok)
	}
	if DirectionOf("") != Right {
		t.Error("Empty tag should fall back to right")
	}
}

func TestDirectionSides(t *testing.T) {
	tests := []struct {
		d          Direction
		right, top bool
	}{
		{Right, true, false},
		{TopRight, true, true},
		{BottomRight, true, false},
		{Left, false, false},
		{TopLeft, false, true},
		{BottomLeft, false, false},
		{Top, false, true},
		{Bottom, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.d.String(), func(t *testing.T) {
			if tc.d.IsRight() != tc.right || tc.d.IsTop() != tc.top {
				t.Errorf("IsRight=%v IsTop=%v, want %v %v",
					tc.d.IsRight(), tc.d.IsTop(), tc.right, tc.top)
			}
		})
	}
}

func TestEstimateLabelSize(t *testing.T) {
	s := EstimateLabelSize("Anchorage", 14)
	if math.Abs(s.W-105.9) > 1e-9 || s.H != 26 {
		t.Errorf("Expected 105.9x26, got %.2fx%.2f", s.W, s.H)
	}
}

func TestRectAndAnchorConsistent(t *testing.T) {
	size := EstimateLabelSize("Talkeetna", 14)
	p := geo.Point{X: 321.5, Y: 87.25}

	for _, buf := range []Buffer{DefaultBuffer, BufferFor(30)} {
		for _, d := range Candidates {
			t.Run(d.String(), func(t *testing.T) {
				want := buf.Rect(p, size, d)
				got := RectAtAnchor(p, buf.Anchor(d, size), size, d)
				if math.Abs(got.Left-want.Left) > 1e-9 || math.Abs(got.Top-want.Top) > 1e-9 ||
					math.Abs(got.Right-want.Right) > 1e-9 || math.Abs(got.Bottom-want.Bottom) > 1e-9 {
					t.Errorf("Anchor rect %+v != offset rect %+v", got, want)
				}
				if want.Left > want.Right || want.Top > want.Bottom {
					t.Errorf("Degenerate rect %+v", want)
				}
			})
		}
	}
}

func TestRectNeverCoversOwnNode(t *testing.T) {
	size := EstimateLabelSize("X", 14)
	for _, nodeSize := range []float64{4, 12, 25, 60} {
		buf := BufferFor(nodeSize)
		node := squareAt(geo.Point{}, nodeSize/math.Sqrt2)
		circle := func(r LabelRect) bool {
			c := ClosestBoundaryPoint(r, geo.Point{})
			return math.Hypot(c.X, c.Y) < nodeSize
		}
		for _, d := range Candidates {
			r := buf.Rect(geo.Point{}, size, d)
			if RectsOverlap(r, node, 0) || circle(r) {
				t.Errorf("node size %v: %v label covers the node: %+v", nodeSize, d, r)
			}
		}
	}
}

func TestDefaultBufferOffsets(t *testing.T) {
	size := Size{W: 100, H: 20}
	tests := []struct {
		d    Direction
		want geo.Point
	}{
		{Right, geo.Point{X: 15, Y: -10}},
		{Left, geo.Point{X: -115, Y: -10}},
		{Top, geo.Point{X: -50, Y: -35}},
		{Bottom, geo.Point{X: -50, Y: 15}},
		{TopRight, geo.Point{X: 10, Y: -30}},
		{TopLeft, geo.Point{X: -110, Y: -30}},
		{BottomRight, geo.Point{X: 10, Y: 10}},
		{BottomLeft, geo.Point{X: -110, Y: 10}},
		{Direction(42), geo.Point{X: 15, Y: -10}},
	}

	buf := BufferFor(12)
	if buf != DefaultBuffer {
		t.Fatalf("Default node size should give the default buffer, got %+v", buf)
	}
	for _, tc := range tests {
		if got := buf.Offset(tc.d, size); got != tc.want {
			t.Errorf("%v: offset %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestRectsOverlapSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randRect := func() LabelRect {
		x, y := rng.Float64()*200, rng.Float64()*200
		return LabelRect{Left: x, Top: y, Right: x + rng.Float64()*60, Bottom: y + rng.Float64()*30}
	}

	for i := 0; i < 500; i++ {
		a, b := randRect(), randRect()
		if RectsOverlap(a, b, OverlapPad) != RectsOverlap(b, a, OverlapPad) {
			t.Fatalf("Asymmetric overlap for %+v and %+v", a, b)
		}
	}
}

func TestRectsOverlapPadding(t *testing.T) {
	a := LabelRect{Left: 0, Top: 0, Right: 10, Bottom: 10}
	tests := []struct {
		name string
		b    LabelRect
		want bool
	}{
		{"intersecting", LabelRect{Left: 5, Top: 5, Right: 15, Bottom: 15}, true},
		{"within pad", LabelRect{Left: 18, Top: 0, Right: 30, Bottom: 10}, true},
		{"touching pads", LabelRect{Left: 20, Top: 0, Right: 30, Bottom: 10}, true},
		{"beyond pad", LabelRect{Left: 21, Top: 0, Right: 30, Bottom: 10}, false},
		{"below", LabelRect{Left: 0, Top: 25, Right: 10, Bottom: 30}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RectsOverlap(a, tc.b, OverlapPad); got != tc.want {
				t.Errorf("RectsOverlap = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPlaceLabelPrefersRight(t *testing.T) {
	loc := at("Anchorage", 100, 100)
	ctx := &Context{Projection: flatProjection{}, Locations: []trip.Location{loc}, NodeSize: 12}

	if d := PlaceLabel(loc, 14, ctx); d != Right {
		t.Errorf("Unobstructed label should go right, got %v", d)
	}
}

func TestPlaceLabelAvoidsPlacedLabel(t *testing.T) {
	loc := at("A", 100, 100)
	ctx := &Context{Projection: flatProjection{}, Locations: []trip.Location{loc}, NodeSize: 4}

	// Block everything to the right of the node.
	ctx.Placed = []PlacedLabel{{
		Location: at("wall", 1000, 1000),
		Rect:     LabelRect{Left: 110, Top: 0, Right: 300, Bottom: 200},
	}}

	if d := PlaceLabel(loc, 14, ctx); d != Left {
		t.Errorf("Expected left once the right side is blocked, got %v", d)
	}
}

func TestPlaceLabelEarlyExitIsNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		var locs []trip.Location
		for i := 0; i < 6; i++ {
			locs = append(locs, at(string(rune('A'+i)), rng.Float64()*120, rng.Float64()*120))
		}
		ctx := &Context{Projection: flatProjection{}, Locations: locs, NodeSize: 6}

		for _, loc := range locs {
			d := PlaceLabel(loc, 14, ctx)

			pixel := ctx.Projection.Project(loc.LatLng())
			size := EstimateLabelSize(loc.Name, 14)
			buf := BufferFor(ctx.NodeSize)

			chosen := Score(buf.Rect(pixel, size, d), d, loc, ctx)
			best, anyClear := chosen, false
			for _, c := range Candidates {
				s := Score(buf.Rect(pixel, size, c), c, loc, ctx)
				if s >= 0 {
					anyClear = true
				}
				if s > best {
					best = s
				}
			}
			if anyClear && chosen < 0 {
				t.Fatalf("round %d: %s chose %v scoring %d although a clear candidate exists",
					round, loc.Name, d, chosen)
			}
			if !anyClear && chosen != best {
				t.Fatalf("round %d: %s chose %v scoring %d, best was %d",
					round, loc.Name, d, chosen, best)
			}

			ctx.Placed = append(ctx.Placed, PlacedLabel{Location: loc, Rect: buf.Rect(pixel, size, d), Position: d})
		}
	}
}

func TestPlaceHonoursAuthoredPosition(t *testing.T) {
	ctx := &Context{Projection: flatProjection{}, NodeSize: 12}

	tests := []struct {
		tag  string
		want Direction
	}{
		{"bottom", Bottom},
		{"top-left", TopLeft},
		{"sideways", Right},
	}

	for _, tc := range tests {
		t.Run(tc.tag, func(t *testing.T) {
			loc := at("Sitka", 50, 50)
			loc.LabelPosition = tc.tag
			p := Place(loc, 14, ctx)
			if p.Position != tc.want || p.Rect.Position != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, p.Position)
			}
		})
	}
}

func TestPlaceAllCluster(t *testing.T) {
	locs := []trip.Location{
		at("A", 100, 100),
		at("B", 140, 100),
		at("C", 100, 140),
		at("D", 140, 140),
		at("E", 120, 120),
	}
	engine := NewEngine(14, 4, nil)

	placed := engine.PlaceAll(flatProjection{}, locs)
	if len(placed) != len(locs) {
		t.Fatalf("Expected %d placements, got %d", len(locs), len(placed))
	}

	want := map[string]Direction{"A": Left, "B": Right, "C": Left, "D": Right, "E": Top}
	for _, p := range placed {
		if p.Position != want[p.Location.Name] {
			t.Errorf("%s placed %v, want %v", p.Location.Name, p.Position, want[p.Location.Name])
		}
	}

	// Baseline: every label to the right.
	buf := BufferFor(4)
	var baseline []PlacedLabel
	for _, loc := range locs {
		r := buf.Rect(geo.Point{X: loc.Lng, Y: loc.Lat}, EstimateLabelSize(loc.Name, 14), Right)
		baseline = append(baseline, PlacedLabel{Location: loc, Rect: r, Position: Right})
	}

	got, base := Overlaps(placed), Overlaps(baseline)
	if got >= base {
		t.Errorf("Greedy layout has %d overlaps, baseline %d", got, base)
	}
	if got != 0 || base != 6 {
		t.Errorf("Expected 0 vs 6 overlaps, got %d vs %d", got, base)
	}
}

func TestPlaceAllPriorityOrder(t *testing.T) {
	locs := []trip.Location{
		at("Mid", 0, 0),
		{Name: "Finish", Lat: 10, Lng: 10, IsEnd: true},
		{Name: "Begin", Lat: 20, Lng: 20, IsStart: true},
		{Name: "Mid", Lat: 99, Lng: 99, IsStart: true},
	}

	placed := NewEngine(14, 12, nil).PlaceAll(flatProjection{}, locs)
	if len(placed) != 3 {
		t.Fatalf("Duplicates should be merged, got %d labels", len(placed))
	}
	// Mid gained the start flag and keeps its first coordinates.
	if placed[0].Location.Name != "Mid" || placed[0].Location.Lat != 0 {
		t.Errorf("First label should be the merged start Mid, got %+v", placed[0].Location)
	}
	if placed[1].Location.Name != "Begin" || placed[2].Location.Name != "Finish" {
		t.Errorf("Unexpected order: %s, %s", placed[1].Location.Name, placed[2].Location.Name)
	}
}

func TestPlaceAllIsReplayable(t *testing.T) {
	ex := trip.Example()
	for i := range ex.Locations {
		ex.Locations[i].LabelPosition = ""
	}
	vp := geo.NewViewport(1200, 800)
	vp.FitBounds(trip.Coords(ex.Locations), 80)

	engine := NewEngine(14, 12, nil)
	first := engine.PlaceAll(vp, ex.Locations)
	second := engine.PlaceAll(vp, ex.Locations)

	for i := range first {
		if first[i].Position != second[i].Position || first[i].Rect != second[i].Rect {
			t.Fatalf("Layout pass is not deterministic at %d", i)
		}
	}
}
