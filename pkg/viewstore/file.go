package viewstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
)

// fileView is the on-disk view format. Pointers tell absent keys apart.
type fileView struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Timestamp int64            `json:"timestamp"`
	TripData  json.RawMessage  `json:"tripData"`
	Center    *geo.LatLng      `json:"center"`
	Zoom      *float64         `json:"zoom"`
	Config    json.RawMessage  `json:"config"`
}

// Encode writes v as indented JSON.
func Encode(w io.Writer, v View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Decode reads a view file. Trip data, centre and a non-zero zoom are
// required; the id and timestamp are kept as read.
func Decode(r io.Reader) (View, error) {
	var fv fileView
	if err := json.NewDecoder(r).Decode(&fv); err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrInvalidView, err)
	}
	if len(fv.TripData) == 0 || string(fv.TripData) == "null" || fv.Center == nil || fv.Zoom == nil || *fv.Zoom == 0 {
		return View{}, ErrInvalidView
	}

	data, err := trip.ParseJSON(fv.TripData)
	if err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrInvalidView, err)
	}

	cfg := style.Default()
	if len(fv.Config) > 0 && string(fv.Config) != "null" {
		if err := json.Unmarshal(fv.Config, cfg); err != nil {
			return View{}, fmt.Errorf("%w: config: %w", ErrInvalidView, err)
		}
	}
	return View{
		ID:        fv.ID,
		Name:      fv.Name,
		Timestamp: fv.Timestamp,
		TripData:  data,
		Center:    *fv.Center,
		Zoom:      *fv.Zoom,
		Config:    cfg,
	}, nil
}

// Export writes the view with the given id to w.
func (s *Store) Export(ctx context.Context, id string, w io.Writer) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return Encode(w, v)
}

// Import reads a view file from r and stores it under a fresh id and
// timestamp.
func (s *Store) Import(ctx context.Context, r io.Reader) (View, error) {
	v, err := Decode(r)
	if err != nil {
		return View{}, err
	}
	v.ID = newID()
	v.Timestamp = s.now().UnixMilli()
	if err := s.insert(ctx, v); err != nil {
		return View{}, err
	}
	return v, nil
}
