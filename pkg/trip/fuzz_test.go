package trip

import (
	"testing"
)

// FuzzParseJSON feeds arbitrary input to the trip parser.
// Run with: go test -fuzz=FuzzParseJSON -fuzztime=30s ./pkg/trip/
func FuzzParseJSON(f *testing.F) {
	// Seed with valid trips
	f.Add([]byte(`{"title":"t","locations":[],"segments":[]}`))
	f.Add([]byte(`{"locations":[{"name":"A","lat":1,"lng":2,"isStart":true}],"segments":[{"from":"A","to":"B","transport":"drive"}]}`))
	f.Add([]byte("```json\n{\"locations\":[],\"segments\":[]}\n```"))

	// Seed with edge cases
	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`null`))
	f.Add([]byte(``))
	f.Add([]byte(`{"locations":null,"segments":[]}`))
	f.Add([]byte(`{"locations":[{"name":"","lat":1e308,"lng":-1e308}],"segments":[]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		trip, err := ParseJSON(data)
		if err != nil {
			return
		}

		// Anything that parses must survive the rest of the pipeline.
		_ = trip.Validate()
		_ = trip.Dangling()
		unique := Dedupe(trip.Locations)
		_ = SortByPriority(unique)

		out, err := ToJSON(trip, false)
		if err != nil {
			t.Fatalf("ToJSON failed on parsed trip: %v", err)
		}
		again, err := ParseJSON(out)
		if err != nil {
			t.Fatalf("Re-parse failed: %v\n%s", err, out)
		}
		if len(again.Locations) != len(trip.Locations) || len(again.Segments) != len(trip.Segments) {
			t.Fatalf("Round trip changed counts")
		}
	})
}
