// Package style holds the visual configuration of a trip map: route types,
// label and node styling, the legend and the color presets.
package style

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ha1tch/tripmap/pkg/trip"
)

// LineStyle is how a route is stroked.
type LineStyle string

const (
	Solid  LineStyle = "solid"
	Dashed LineStyle = "dashed"
)

// Route defaults for transports no route type matches.
const (
	FallbackRouteColor = "#888888"
	DefaultLineWidth   = 5.0
	DashPattern        = "12, 8"
)

// RouteType styles the segments whose transport matches it.
type RouteType struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Color     string    `json:"color" yaml:"color"`
	LineStyle LineStyle `json:"lineStyle" yaml:"line_style"`
	LineWidth float64   `json:"lineWidth,omitempty" yaml:"line_width,omitempty"`
}

// Width returns the stroke width, defaulting to DefaultLineWidth.
func (rt RouteType) Width() float64 {
	if rt.LineWidth > 0 {
		return rt.LineWidth
	}
	return DefaultLineWidth
}

// LabelStyle styles location labels.
type LabelStyle struct {
	FontSize  float64 `json:"fontSize" yaml:"font_size"`
	BgColor   string  `json:"bgColor" yaml:"bg_color"`
	TextColor string  `json:"textColor" yaml:"text_color"`
}

// NodeStyle sizes location nodes and route arrows. Size is the node radius.
type NodeStyle struct {
	Size        float64 `json:"size" yaml:"size"`
	BorderWidth float64 `json:"borderWidth" yaml:"border_width"`
	ArrowSize   float64 `json:"arrowSize" yaml:"arrow_size"`
}

// NodeColors are the fills of start, end and intermediate nodes.
type NodeColors struct {
	Start   string `json:"startColor" yaml:"start"`
	End     string `json:"endColor" yaml:"end"`
	Default string `json:"defaultColor" yaml:"default"`
}

// Position is a pixel offset.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// LegendStyle places the legend. Position is measured from the bottom-left
// corner of the map.
type LegendStyle struct {
	Scale    float64  `json:"scale" yaml:"scale"`
	Position Position `json:"position" yaml:"position"`
}

// AppConfig is the complete visual configuration.
type AppConfig struct {
	RouteTypes   []RouteType `json:"routeTypes" yaml:"route_types"`
	LabelStyle   LabelStyle  `json:"labelStyle" yaml:"label_style"`
	NodeStyle    NodeStyle   `json:"nodeStyle" yaml:"node_style"`
	NodeColors   NodeColors  `json:"nodeColors" yaml:"node_colors"`
	LegendStyle  LegendStyle `json:"legendStyle" yaml:"legend_style"`
	ActivePreset string      `json:"activePreset" yaml:"active_preset"`
}

// Default returns the default configuration: the standard preset with
// 14px labels and 12px nodes.
func Default() *AppConfig {
	p := presets[0]
	return &AppConfig{
		RouteTypes: p.routeTypes(),
		LabelStyle: LabelStyle{
			FontSize:  14,
			BgColor:   "#ffffff",
			TextColor: "#1a1d23",
		},
		NodeStyle: NodeStyle{
			Size:        12,
			BorderWidth: 3,
			ArrowSize:   20,
		},
		NodeColors: p.Nodes,
		LegendStyle: LegendStyle{
			Scale:    1,
			Position: Position{X: 30, Y: 30},
		},
		ActivePreset: p.ID,
	}
}

// Clone returns a deep copy of c.
func (c *AppConfig) Clone() *AppConfig {
	out := *c
	out.RouteTypes = append([]RouteType(nil), c.RouteTypes...)
	return &out
}

// RouteFor finds the route type for a transport: an exact, case-insensitive
// id match first, then a route type whose display name contains it.
func (c *AppConfig) RouteFor(transport string) (RouteType, bool) {
	t := strings.ToLower(strings.TrimSpace(transport))
	if t == "" {
		return RouteType{}, false
	}
	for _, rt := range c.RouteTypes {
		if strings.ToLower(rt.ID) == t {
			return rt, true
		}
	}
	for _, rt := range c.RouteTypes {
		if strings.Contains(strings.ToLower(rt.Name), t) {
			return rt, true
		}
	}
	return RouteType{}, false
}

// RouteStyle returns the style for a transport, falling back to a grey solid
// line when no route type matches.
func (c *AppConfig) RouteStyle(transport string) RouteType {
	if rt, ok := c.RouteFor(transport); ok {
		return rt
	}
	return RouteType{ID: transport, Name: transport, Color: FallbackRouteColor, LineStyle: Solid}
}

// LegendEntries returns the configured route types used by any segment,
// matched by id, in configuration order.
func (c *AppConfig) LegendEntries(segments []trip.Segment) []RouteType {
	used := make(map[string]bool, len(segments))
	for _, s := range segments {
		used[strings.ToLower(s.Transport)] = true
	}
	var out []RouteType
	for _, rt := range c.RouteTypes {
		if used[strings.ToLower(rt.ID)] {
			out = append(out, rt)
		}
	}
	return out
}

// NodeColor returns the fill of a location's node.
func (c *AppConfig) NodeColor(loc trip.Location) string {
	switch {
	case loc.IsStart:
		return c.NodeColors.Start
	case loc.IsEnd:
		return c.NodeColors.End
	default:
		return c.NodeColors.Default
	}
}

// LabelColors returns the background and text colors of a location's
// label. Start and end labels take their node color with white text.
func (c *AppConfig) LabelColors(loc trip.Location) (bg, fg string) {
	switch {
	case loc.IsStart:
		return c.NodeColors.Start, "#ffffff"
	case loc.IsEnd:
		return c.NodeColors.End, "#ffffff"
	default:
		return c.LabelStyle.BgColor, c.LabelStyle.TextColor
	}
}

// Validate checks sizes and colors.
func (c *AppConfig) Validate() error {
	if c.LabelStyle.FontSize <= 0 {
		return fmt.Errorf("label font size must be positive, got %g", c.LabelStyle.FontSize)
	}
	if c.NodeStyle.Size <= 0 {
		return fmt.Errorf("node size must be positive, got %g", c.NodeStyle.Size)
	}
	if c.NodeStyle.BorderWidth < 0 || c.NodeStyle.ArrowSize < 0 {
		return fmt.Errorf("node border and arrow sizes must not be negative")
	}

	colors := map[string]string{
		"label background": c.LabelStyle.BgColor,
		"label text":       c.LabelStyle.TextColor,
		"start node":       c.NodeColors.Start,
		"end node":         c.NodeColors.End,
		"default node":     c.NodeColors.Default,
	}
	for what, hex := range colors {
		if _, err := ParseColor(hex); err != nil {
			return fmt.Errorf("%s color: %w", what, err)
		}
	}
	for _, rt := range c.RouteTypes {
		if rt.ID == "" {
			return fmt.Errorf("route type %q has no id", rt.Name)
		}
		if _, err := ParseColor(rt.Color); err != nil {
			return fmt.Errorf("route type %q color: %w", rt.ID, err)
		}
		if rt.LineStyle != Solid && rt.LineStyle != Dashed {
			return fmt.Errorf("route type %q: unknown line style %q", rt.ID, rt.LineStyle)
		}
	}
	return nil
}

// ParseColor parses a #rgb or #rrggbb color.
func ParseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(strings.TrimSpace(hex))
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// MustColor parses hex, returning fallback if it is not a valid color.
func MustColor(hex string, fallback colorful.Color) colorful.Color {
	c, err := ParseColor(hex)
	if err != nil {
		return fallback
	}
	return c
}
