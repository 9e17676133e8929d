package trip

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTrip is returned for trip JSON that cannot be decoded or lacks
// the locations or segments keys.
var ErrInvalidTrip = errors.New("invalid trip data")

// jsonTrip mirrors TripData with nil-able slices so missing keys can be told
// apart from empty ones.
type jsonTrip struct {
	Title     string      `json:"title"`
	Locations *[]Location `json:"locations"`
	Segments  *[]Segment  `json:"segments"`
}

// stripFences removes a surrounding markdown code fence, as produced when
// trip JSON is pasted from a chat transcript.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseJSON parses trip data from JSON.
func ParseJSON(data []byte) (*TripData, error) {
	var j jsonTrip
	if err := json.Unmarshal([]byte(stripFences(string(data))), &j); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrip, err)
	}
	if j.Locations == nil || *j.Locations == nil {
		return nil, fmt.Errorf("%w: missing locations", ErrInvalidTrip)
	}
	if j.Segments == nil || *j.Segments == nil {
		return nil, fmt.Errorf("%w: missing segments", ErrInvalidTrip)
	}

	return &TripData{
		Title:     j.Title,
		Locations: *j.Locations,
		Segments:  *j.Segments,
	}, nil
}

// ToJSON converts trip data to JSON.
func ToJSON(t *TripData, pretty bool) ([]byte, error) {
	out := *t
	if out.Locations == nil {
		out.Locations = []Location{}
	}
	if out.Segments == nil {
		out.Segments = []Segment{}
	}
	if pretty {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}
