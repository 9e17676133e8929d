package style

import (
	"fmt"
	"strings"
)

// RouteColors are a preset's colors for the built-in route types.
type RouteColors struct {
	Drive  string
	Rail   string
	Cruise string
	Fly    string
}

// Preset is a named color scheme.
type Preset struct {
	ID     string
	Name   string
	Routes RouteColors
	Nodes  NodeColors
}

var presets = []Preset{
	{
		ID:     "standard",
		Name:   "Standard",
		Routes: RouteColors{Drive: "#00b4d8", Rail: "#00b4d8", Cruise: "#f97316", Fly: "#a855f7"},
		Nodes:  NodeColors{Start: "#22c55e", End: "#ef4444", Default: "#f97316"},
	},
	{
		ID:     "ocean",
		Name:   "Ocean",
		Routes: RouteColors{Drive: "#0ea5e9", Rail: "#0284c7", Cruise: "#06b6d4", Fly: "#0369a1"},
		Nodes:  NodeColors{Start: "#06b6d4", End: "#0369a1", Default: "#0ea5e9"},
	},
	{
		ID:     "earth",
		Name:   "Earth",
		Routes: RouteColors{Drive: "#84cc16", Rail: "#65a30d", Cruise: "#ca8a04", Fly: "#b45309"},
		Nodes:  NodeColors{Start: "#84cc16", End: "#b45309", Default: "#65a30d"},
	},
	{
		ID:     "sunset",
		Name:   "Sunset",
		Routes: RouteColors{Drive: "#f97316", Rail: "#ea580c", Cruise: "#dc2626", Fly: "#be185d"},
		Nodes:  NodeColors{Start: "#fbbf24", End: "#dc2626", Default: "#f97316"},
	},
}

func (p Preset) color(routeID string) (string, bool) {
	switch routeID {
	case "drive":
		return p.Routes.Drive, true
	case "rail":
		return p.Routes.Rail, true
	case "cruise":
		return p.Routes.Cruise, true
	case "fly":
		return p.Routes.Fly, true
	}
	return "", false
}

func (p Preset) routeTypes() []RouteType {
	return []RouteType{
		{ID: "drive", Name: "Motorcoach / Drive", Color: p.Routes.Drive, LineStyle: Solid},
		{ID: "rail", Name: "Rail", Color: p.Routes.Rail, LineStyle: Dashed},
		{ID: "cruise", Name: "Cruise / Boat", Color: p.Routes.Cruise, LineStyle: Solid},
		{ID: "fly", Name: "Flight", Color: p.Routes.Fly, LineStyle: Dashed},
	}
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// PresetByID looks up a preset by id, ignoring case.
func PresetByID(id string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Preset{}, false
}

// NextPreset returns the id of the preset after id, wrapping around.
func NextPreset(id string) string {
	for i, p := range presets {
		if strings.EqualFold(p.ID, id) {
			return presets[(i+1)%len(presets)].ID
		}
	}
	return presets[0].ID
}

// ApplyPreset recolors the built-in route types and the nodes with the named
// preset. Route types the preset does not know keep their colors.
func (c *AppConfig) ApplyPreset(id string) error {
	p, ok := PresetByID(id)
	if !ok {
		return fmt.Errorf("unknown preset %q", id)
	}
	for i, rt := range c.RouteTypes {
		if col, ok := p.color(strings.ToLower(rt.ID)); ok {
			c.RouteTypes[i].Color = col
		}
	}
	c.NodeColors = p.Nodes
	c.ActivePreset = p.ID
	return nil
}
