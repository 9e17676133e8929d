package layout

import (
	"math"
	"testing"

	"github.com/ha1tch/tripmap/pkg/geo"
)

func TestClosestBoundaryPoint(t *testing.T) {
	r := LabelRect{Left: 10, Top: -5, Right: 50, Bottom: 5}

	tests := []struct {
		name string
		p    geo.Point
		want geo.Point
	}{
		{"left of", geo.Point{X: 0, Y: 0}, geo.Point{X: 10, Y: 0}},
		{"corner", geo.Point{X: 0, Y: -20}, geo.Point{X: 10, Y: -5}},
		{"below", geo.Point{X: 30, Y: 40}, geo.Point{X: 30, Y: 5}},
		{"inside near top", geo.Point{X: 30, Y: -4}, geo.Point{X: 30, Y: -5}},
		{"inside near right", geo.Point{X: 49, Y: 0}, geo.Point{X: 50, Y: 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClosestBoundaryPoint(r, tc.p); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLeaderLineSuppressedWhenAdjacent(t *testing.T) {
	node := geo.Point{X: 0, Y: 0}
	size := EstimateLabelSize("Seward", 14)

	for _, d := range Candidates {
		rect := BufferFor(4).Rect(node, size, d)
		if _, ok := BuildLeaderLine(node, rect, 4); ok {
			t.Errorf("%v: adjacent label should not get a leader line", d)
		}
	}
}

func TestLeaderLineEmittedWhenDisplaced(t *testing.T) {
	node := geo.Point{X: 0, Y: 0}
	rect := LabelRect{Left: 50, Top: -13, Right: 120, Bottom: 13}

	line, ok := BuildLeaderLine(node, rect, 4)
	if !ok {
		t.Fatal("Displaced label should get a leader line")
	}
	if line.From != (geo.Point{X: 4, Y: 0}) {
		t.Errorf("Line should start on the node rim, got %v", line.From)
	}
	if line.To != (geo.Point{X: 50, Y: 0}) {
		t.Errorf("Line should end on the label edge, got %v", line.To)
	}

	// Diagonal: start point is one radius from the centre.
	line, ok = BuildLeaderLine(node, LabelRect{Left: 30, Top: 40, Right: 90, Bottom: 60}, 10)
	if !ok {
		t.Fatal("Diagonal label should get a leader line")
	}
	if r := math.Hypot(line.From.X, line.From.Y); math.Abs(r-10) > 1e-9 {
		t.Errorf("Line start should be on the rim, radius %.4f", r)
	}
	if line.To != (geo.Point{X: 30, Y: 40}) {
		t.Errorf("Line should end at the nearest corner, got %v", line.To)
	}
}

func TestLeaderThresholdGrowsWithNodeSize(t *testing.T) {
	node := geo.Point{}
	rect := LabelRect{Left: 50, Top: -13, Right: 120, Bottom: 13}

	if _, ok := BuildLeaderLine(node, rect, 4); !ok {
		t.Error("Small node should keep the leader line")
	}
	if _, ok := BuildLeaderLine(node, rect, 12); ok {
		t.Error("Large node should suppress the leader line at the same distance")
	}
	if LeaderThreshold(12) <= LeaderThreshold(4) {
		t.Error("Threshold must grow with node size")
	}
}

func TestBuildLeaderLines(t *testing.T) {
	placed := []PlacedLabel{
		{Location: at("near", 0, 0), Rect: BufferFor(4).Rect(geo.Point{}, Size{W: 40, H: 20}, Right)},
		{Location: at("far", 0, 0), Rect: LabelRect{Left: 100, Top: 0, Right: 140, Bottom: 20}},
	}

	lines := BuildLeaderLines(flatProjection{}, placed, 4)
	if len(lines) != 1 || lines[0].Name != "far" {
		t.Errorf("Expected a single leader line for far, got %+v", lines)
	}
}
