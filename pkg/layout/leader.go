package layout

import (
	"math"

	"github.com/ha1tch/tripmap/pkg/geo"
)

// LeaderThresholdFactor scales the node radius into the distance below which
// a label is close enough to its node to need no leader line. Five radii is
// two and a half node diameters.
const LeaderThresholdFactor = 5.0

// LeaderLine is a dashed connector from a node's rim to its label's edge.
type LeaderLine struct {
	Name     string
	From, To geo.Point
}

// LeaderThreshold returns the suppression distance for a node radius.
func LeaderThreshold(nodeSize float64) float64 {
	return LeaderThresholdFactor * nodeSize
}

// ClosestBoundaryPoint returns the point on r's boundary nearest to p.
func ClosestBoundaryPoint(r LabelRect, p geo.Point) geo.Point {
	x := math.Max(r.Left, math.Min(r.Right, p.X))
	y := math.Max(r.Top, math.Min(r.Bottom, p.Y))
	if x != p.X || y != p.Y {
		return geo.Point{X: x, Y: y}
	}

	// p is inside: move it to the nearest edge.
	dl, dr := p.X-r.Left, r.Right-p.X
	dt, db := p.Y-r.Top, r.Bottom-p.Y
	switch math.Min(math.Min(dl, dr), math.Min(dt, db)) {
	case dl:
		return geo.Point{X: r.Left, Y: p.Y}
	case dr:
		return geo.Point{X: r.Right, Y: p.Y}
	case dt:
		return geo.Point{X: p.X, Y: r.Top}
	default:
		return geo.Point{X: p.X, Y: r.Bottom}
	}
}

// BuildLeaderLine returns the connector between a node at pixel node and its
// label rectangle. ok is false when the label's nearest edge is within
// LeaderThreshold of the node.
func BuildLeaderLine(node geo.Point, label LabelRect, nodeSize float64) (line LeaderLine, ok bool) {
	edge := ClosestBoundaryPoint(label, node)
	dist := geo.Dist(node, edge)
	if dist == 0 || dist < LeaderThreshold(nodeSize) {
		return LeaderLine{}, false
	}

	ux := (edge.X - node.X) / dist
	uy := (edge.Y - node.Y) / dist
	return LeaderLine{
		From: geo.Point{X: node.X + ux*nodeSize, Y: node.Y + uy*nodeSize},
		To:   edge,
	}, true
}

// BuildLeaderLines builds the connectors for every placed label that needs
// one.
func BuildLeaderLines(proj geo.Projection, placed []PlacedLabel, nodeSize float64) []LeaderLine {
	var lines []LeaderLine
	for _, p := range placed {
		line, ok := BuildLeaderLine(proj.Project(p.Location.LatLng()), p.Rect, nodeSize)
		if !ok {
			continue
		}
		line.Name = p.Location.Name
		lines = append(lines, line)
	}
	return lines
}
