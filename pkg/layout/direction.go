// Package layout places map labels next to their nodes without overlapping
// each other or neighbouring nodes, and builds the leader lines that connect
// displaced labels back to their nodes.
//
// Placement is a greedy single pass: locations are processed in priority
// order and each label takes the first candidate direction that collides
// with nothing placed so far.
package layout

import "fmt"

// Direction is where a label sits relative to its node.
type Direction int

const (
	Right Direction = iota
	TopRight
	BottomRight
	Left
	TopLeft
	BottomLeft
	Top
	Bottom
)

// Candidates lists every direction in placement priority order. The order is
// part of the behaviour: ties go to the earlier entry.
var Candidates = [...]Direction{Right, TopRight, BottomRight, Left, TopLeft, BottomLeft, Top, Bottom}

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case Left:
		return "left"
	case TopLeft:
		return "top-left"
	case BottomLeft:
		return "bottom-left"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection returns the direction named by tag. ok is false for an
// unrecognised tag.
func ParseDirection(tag string) (d Direction, ok bool) {
	switch tag {
	case "right":
		return Right, true
	case "top-right":
		return TopRight, true
	case "bottom-right":
		return BottomRight, true
	case "left":
		return Left, true
	case "top-left":
		return TopLeft, true
	case "bottom-left":
		return BottomLeft, true
	case "top":
		return Top, true
	case "bottom":
		return Bottom, true
	}
	return Right, false
}

// DirectionOf is ParseDirection with unrecognised tags mapped to Right.
func DirectionOf(tag string) Direction {
	d, _ := ParseDirection(tag)
	return d
}

// IsRight reports whether the label sits on the right-hand side.
func (d Direction) IsRight() bool {
	return d == Right || d == TopRight || d == BottomRight
}

// IsTop reports whether the label sits above the node.
func (d Direction) IsTop() bool {
	return d == Top || d == TopRight || d == TopLeft
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	v, ok := ParseDirection(string(text))
	if !ok {
		return fmt.Errorf("unknown label direction %q", text)
	}
	*d = v
	return nil
}
