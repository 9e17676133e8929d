// Package trip provides the itinerary model rendered onto a trip map:
// named locations, directed transport segments and the helpers the
// renderer needs to prepare them.
package trip

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ha1tch/tripmap/pkg/geo"
)

// Location is a named stop on the trip.
type Location struct {
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	IsStart       bool    `json:"isStart,omitempty"`
	IsEnd         bool    `json:"isEnd,omitempty"`
	LabelPosition string  `json:"labelPosition,omitempty"` // authored direction tag, bypasses layout
}

// LatLng returns the location's coordinate.
func (l Location) LatLng() geo.LatLng {
	return geo.LatLng{Lat: l.Lat, Lng: l.Lng}
}

// Segment is a directed leg between two locations, referenced by name.
type Segment struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Transport string `json:"transport"`
}

// TripData is the unit of input to a render pass.
type TripData struct {
	Title     string     `json:"title"`
	Locations []Location `json:"locations"`
	Segments  []Segment  `json:"segments"`
}

// Dedupe merges locations that share a name into the first occurrence.
// Start and end flags are OR'd; a label position is taken from a later
// entry only when the first has none. Order of first occurrence is kept and
// the input is not modified.
func Dedupe(locations []Location) []Location {
	index := make(map[string]int, len(locations))
	out := make([]Location, 0, len(locations))

	for _, loc := range locations {
		i, ok := index[loc.Name]
		if !ok {
			index[loc.Name] = len(out)
			out = append(out, loc)
			continue
		}
		existing := &out[i]
		if loc.IsStart {
			existing.IsStart = true
		}
		if loc.IsEnd {
			existing.IsEnd = true
		}
		if loc.LabelPosition != "" && existing.LabelPosition == "" {
			existing.LabelPosition = loc.LabelPosition
		}
	}
	return out
}

func priority(l Location) int {
	switch {
	case l.IsStart:
		return 0
	case l.IsEnd:
		return 1
	default:
		return 2
	}
}

// SortByPriority returns a copy of locations ordered for label placement:
// the start location first, the end location second, then the rest in
// their original order.
func SortByPriority(locations []Location) []Location {
	out := append([]Location(nil), locations...)
	sort.SliceStable(out, func(i, j int) bool {
		return priority(out[i]) < priority(out[j])
	})
	return out
}

// Index maps location names to locations.
func Index(locations []Location) map[string]Location {
	m := make(map[string]Location, len(locations))
	for _, loc := range locations {
		if _, ok := m[loc.Name]; !ok {
			m[loc.Name] = loc
		}
	}
	return m
}

// Coords returns the coordinates of the given locations.
func Coords(locations []Location) []geo.LatLng {
	out := make([]geo.LatLng, len(locations))
	for i, loc := range locations {
		out[i] = loc.LatLng()
	}
	return out
}

// DanglingRef describes a segment whose endpoint is not a known location.
type DanglingRef struct {
	Segment int
	From    string
	To      string
	Missing []string
}

func (d DanglingRef) String() string {
	return fmt.Sprintf("segment %d (%s -> %s): unknown location %s",
		d.Segment, d.From, d.To, strings.Join(quoteAll(d.Missing), ", "))
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

// Dangling reports every segment that references a location name not
// present in the trip. Such segments are skipped when rendering.
func (t *TripData) Dangling() []DanglingRef {
	known := Index(t.Locations)
	var refs []DanglingRef
	for i, seg := range t.Segments {
		var missing []string
		if _, ok := known[seg.From]; !ok {
			missing = append(missing, seg.From)
		}
		if _, ok := known[seg.To]; !ok && seg.To != seg.From {
			missing = append(missing, seg.To)
		}
		if len(missing) > 0 {
			refs = append(refs, DanglingRef{Segment: i, From: seg.From, To: seg.To, Missing: missing})
		}
	}
	return refs
}

// Validate checks that locations are well-formed. Dangling segment
// references are not errors; see Dangling.
func (t *TripData) Validate() error {
	for i, loc := range t.Locations {
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("location %d has no name", i)
		}
		if loc.Lat < -90 || loc.Lat > 90 {
			return fmt.Errorf("location %q: latitude %g out of range", loc.Name, loc.Lat)
		}
		if loc.Lng < -180 || loc.Lng > 180 {
			return fmt.Errorf("location %q: longitude %g out of range", loc.Name, loc.Lng)
		}
	}
	return nil
}

// Transports returns the distinct lower-cased transport names used by the
// trip's segments, in first-use order.
func (t *TripData) Transports() []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range t.Segments {
		tr := strings.ToLower(seg.Transport)
		if !seen[tr] {
			seen[tr] = true
			out = append(out, tr)
		}
	}
	return out
}

// String returns a short summary of the trip.
func (t *TripData) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Trip: %s\n", t.Title))
	sb.WriteString(fmt.Sprintf("  Locations: %d\n", len(t.Locations)))
	for _, loc := range t.Locations {
		flags := ""
		if loc.IsStart {
			flags += " [start]"
		}
		if loc.IsEnd {
			flags += " [end]"
		}
		sb.WriteString(fmt.Sprintf("    %-20s %9.4f %10.4f%s\n", loc.Name, loc.Lat, loc.Lng, flags))
	}
	sb.WriteString(fmt.Sprintf("  Segments: %d\n", len(t.Segments)))
	for _, seg := range t.Segments {
		sb.WriteString(fmt.Sprintf("    %s -> %s (%s)\n", seg.From, seg.To, seg.Transport))
	}
	return sb.String()
}
