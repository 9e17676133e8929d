package layout

import (
	"math"
	"unicode/utf8"

	"github.com/ha1tch/tripmap/pkg/geo"
)

// Label size estimation coefficients.
const (
	CharWidthFactor = 0.65
	LabelPadX       = 24.0
	LabelPadY       = 12.0
)

// OverlapPad is the tolerance added around both rectangles in an overlap test.
const OverlapPad = 5.0

// Size is a label's pixel dimensions.
type Size struct {
	W, H float64
}

// EstimateLabelSize approximates the rendered size of a label from its text
// length and font size, independent of real font metrics.
func EstimateLabelSize(text string, fontSize float64) Size {
	return Size{
		W: float64(utf8.RuneCountInString(text))*fontSize*CharWidthFactor + LabelPadX,
		H: fontSize + LabelPadY,
	}
}

// LabelRect is an axis-aligned label box in viewport pixels. It is only
// valid for the viewport state it was computed under.
type LabelRect struct {
	Left, Top, Right, Bottom float64
	Position                 Direction
}

func (r LabelRect) Width() float64  { return r.Right - r.Left }
func (r LabelRect) Height() float64 { return r.Bottom - r.Top }

// Center returns the centre of the rectangle.
func (r LabelRect) Center() geo.Point {
	return geo.Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Translate returns r moved by dx, dy.
func (r LabelRect) Translate(dx, dy float64) LabelRect {
	r.Left += dx
	r.Right += dx
	r.Top += dy
	r.Bottom += dy
	return r
}

// RectsOverlap reports whether a and b intersect once each is grown by pad
// on every side. Touching counts as overlap.
func RectsOverlap(a, b LabelRect, pad float64) bool {
	return !(a.Right+pad < b.Left-pad ||
		a.Left-pad > b.Right+pad ||
		a.Bottom+pad < b.Top-pad ||
		a.Top-pad > b.Bottom+pad)
}

// squareAt returns a square of the given half-width centred on p.
func squareAt(p geo.Point, half float64) LabelRect {
	return LabelRect{Left: p.X - half, Top: p.Y - half, Right: p.X + half, Bottom: p.Y + half}
}

// Buffer is the gap between a node and its label: Cardinal for the four
// axis directions, Diagonal (per axis) for the corners.
type Buffer struct {
	Cardinal float64
	Diagonal float64
}

// DefaultBuffer is the gap used for nodes of the default size.
var DefaultBuffer = Buffer{Cardinal: 15, Diagonal: 10}

// BufferFor returns the label gap for a node of the given radius. It never
// drops below DefaultBuffer and grows with large nodes so a label cannot
// cover its own node.
func BufferFor(nodeSize float64) Buffer {
	return Buffer{
		Cardinal: math.Max(DefaultBuffer.Cardinal, nodeSize+3),
		Diagonal: math.Max(DefaultBuffer.Diagonal, nodeSize/math.Sqrt2+1),
	}
}

// Offset returns the position of a label's top-left corner relative to its
// node for direction d.
func (b Buffer) Offset(d Direction, s Size) geo.Point {
	c, g := b.Cardinal, b.Diagonal
	switch d {
	case Left:
		return geo.Point{X: -s.W - c, Y: -s.H / 2}
	case Top:
		return geo.Point{X: -s.W / 2, Y: -s.H - c}
	case Bottom:
		return geo.Point{X: -s.W / 2, Y: c}
	case TopRight:
		return geo.Point{X: g, Y: -s.H - g}
	case TopLeft:
		return geo.Point{X: -s.W - g, Y: -s.H - g}
	case BottomRight:
		return geo.Point{X: g, Y: g}
	case BottomLeft:
		return geo.Point{X: -s.W - g, Y: g}
	default: // Right
		return geo.Point{X: c, Y: -s.H / 2}
	}
}

// Anchor returns the point inside the label box, measured from its top-left
// corner, that must coincide with the node's pixel for direction d.
func (b Buffer) Anchor(d Direction, s Size) geo.Point {
	c, g := b.Cardinal, b.Diagonal
	switch d {
	case Left:
		return geo.Point{X: s.W + c, Y: s.H / 2}
	case Top:
		return geo.Point{X: s.W / 2, Y: s.H + c}
	case Bottom:
		return geo.Point{X: s.W / 2, Y: -c}
	case TopRight:
		return geo.Point{X: -g, Y: s.H + g}
	case TopLeft:
		return geo.Point{X: s.W + g, Y: s.H + g}
	case BottomRight:
		return geo.Point{X: -g, Y: -g}
	case BottomLeft:
		return geo.Point{X: s.W + g, Y: -g}
	default: // Right
		return geo.Point{X: -c, Y: s.H / 2}
	}
}

// Rect returns the label rectangle for a node at p, placed in direction d.
func (b Buffer) Rect(p geo.Point, s Size, d Direction) LabelRect {
	off := b.Offset(d, s)
	left := p.X + off.X
	top := p.Y + off.Y
	return LabelRect{Left: left, Top: top, Right: left + s.W, Bottom: top + s.H, Position: d}
}

// RectAtAnchor returns the rectangle a label of size s occupies when drawn
// with anchor a aligned to pixel p.
func RectAtAnchor(p, a geo.Point, s Size, d Direction) LabelRect {
	left := p.X - a.X
	top := p.Y - a.Y
	return LabelRect{Left: left, Top: top, Right: left + s.W, Bottom: top + s.H, Position: d}
}
