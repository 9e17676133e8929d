package layout

import (
	"log/slog"
	"strings"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/trip"
)

// Candidate scoring weights.
const (
	RightBonus          = 10
	TopBonus            = 5
	LabelOverlapPenalty = 100
	NodeOverlapPenalty  = 50

	// NodeMargin is added to the node radius to get the half-width of the
	// square a label must keep clear of.
	NodeMargin = 5.0
)

// PlacedLabel is a label committed during a layout pass.
type PlacedLabel struct {
	Location trip.Location
	Rect     LabelRect
	Position Direction
}

// Context is the state a single placement is scored against. Placed grows
// as a pass proceeds; Locations is every node being rendered.
type Context struct {
	Projection geo.Projection
	Placed     []PlacedLabel
	Locations  []trip.Location
	NodeSize   float64
}

// Score rates a candidate rectangle for loc. A score of zero or more means
// the candidate collides with nothing.
func Score(rect LabelRect, d Direction, loc trip.Location, ctx *Context) int {
	score := 0
	if d.IsRight() {
		score += RightBonus
	}
	if d.IsTop() {
		score += TopBonus
	}
	if overlapsLabel(rect, ctx.Placed) {
		score -= LabelOverlapPenalty
	}
	if overlapsNode(rect, loc, ctx) {
		score -= NodeOverlapPenalty
	}
	return score
}

func overlapsLabel(rect LabelRect, placed []PlacedLabel) bool {
	for _, p := range placed {
		if RectsOverlap(rect, p.Rect, OverlapPad) {
			return true
		}
	}
	return false
}

func overlapsNode(rect LabelRect, loc trip.Location, ctx *Context) bool {
	half := ctx.NodeSize + NodeMargin
	for _, other := range ctx.Locations {
		if other.Name == loc.Name {
			continue
		}
		node := squareAt(ctx.Projection.Project(other.LatLng()), half)
		if RectsOverlap(rect, node, OverlapPad) {
			return true
		}
	}
	return false
}

// PlaceLabel chooses a direction for loc's label. Candidates are tried in
// priority order and the first that collides with nothing is returned
// without looking further. If every candidate collides, the best scoring one
// wins, earlier candidates winning ties.
func PlaceLabel(loc trip.Location, fontSize float64, ctx *Context) Direction {
	pixel := ctx.Projection.Project(loc.LatLng())
	size := EstimateLabelSize(loc.Name, fontSize)
	buf := BufferFor(ctx.NodeSize)

	best := Right
	bestScore := 0
	first := true

	for _, d := range Candidates {
		score := Score(buf.Rect(pixel, size, d), d, loc, ctx)
		if first || score > bestScore {
			best, bestScore = d, score
			first = false
		}
		if score >= 0 {
			return d
		}
	}
	return best
}

// Place resolves loc's label placement and rectangle. An authored label
// position bypasses scoring entirely.
func Place(loc trip.Location, fontSize float64, ctx *Context) PlacedLabel {
	var d Direction
	if loc.LabelPosition != "" {
		d = DirectionOf(strings.TrimSpace(loc.LabelPosition))
	} else {
		d = PlaceLabel(loc, fontSize, ctx)
	}
	pixel := ctx.Projection.Project(loc.LatLng())
	rect := BufferFor(ctx.NodeSize).Rect(pixel, EstimateLabelSize(loc.Name, fontSize), d)
	return PlacedLabel{Location: loc, Rect: rect, Position: d}
}

// Engine runs complete layout passes.
type Engine struct {
	FontSize float64
	NodeSize float64
	Logger   *slog.Logger
}

// NewEngine returns an engine for the given label font size and node radius.
func NewEngine(fontSize, nodeSize float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{FontSize: fontSize, NodeSize: nodeSize, Logger: logger}
}

// PlaceAll runs a full layout pass over locations under the given
// projection. Locations are de-duplicated and processed start first, end
// second, then in input order; the result follows processing order. Each
// call starts from an empty placement set.
func (e *Engine) PlaceAll(proj geo.Projection, locations []trip.Location) []PlacedLabel {
	nodes := trip.Dedupe(locations)
	ctx := &Context{
		Projection: proj,
		Locations:  nodes,
		NodeSize:   e.NodeSize,
		Placed:     make([]PlacedLabel, 0, len(nodes)),
	}

	for _, loc := range trip.SortByPriority(nodes) {
		placed := Place(loc, e.FontSize, ctx)
		ctx.Placed = append(ctx.Placed, placed)
		if e.Logger != nil {
			e.Logger.Debug("label placed",
				"location", loc.Name,
				"position", placed.Position.String(),
				"authored", loc.LabelPosition != "")
		}
	}
	return ctx.Placed
}

// Overlaps counts pairs of placed labels whose rectangles overlap.
func Overlaps(placed []PlacedLabel) int {
	n := 0
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			if RectsOverlap(placed[i].Rect, placed[j].Rect, OverlapPad) {
				n++
			}
		}
	}
	return n
}
