// Package viewstore persists saved map views (a trip with the centre, zoom
// and style it was looked at with) in SQLite, and moves them in and out as
// JSON files.
package viewstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when no view has the requested id.
	ErrNotFound = errors.New("view not found")
	// ErrInvalidView is returned for view files missing trip data, centre or zoom.
	ErrInvalidView = errors.New("invalid view file format")
)

// View is a saved map view.
type View struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Timestamp int64            `json:"timestamp"` // unix milliseconds
	TripData  *trip.TripData   `json:"tripData"`
	Center    geo.LatLng       `json:"center"`
	Zoom      float64          `json:"zoom"`
	Config    *style.AppConfig `json:"config"`
}

// Created returns the view's creation time.
func (v View) Created() time.Time {
	return time.UnixMilli(v.Timestamp)
}

var spaces = regexp.MustCompile(`\s+`)

// FileName returns the suggested export file name for v.
func (v View) FileName() string {
	return fmt.Sprintf("tripmap-%s-%s.json", spaces.ReplaceAllString(v.Name, "-"), v.ID)
}

// Store is a SQLite-backed view store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the view database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func newID() string {
	return "view-" + uuid.New().String()
}

// Save stores a new view and returns it with its generated id and timestamp.
func (s *Store) Save(ctx context.Context, name string, data *trip.TripData, center geo.LatLng, zoom float64, cfg *style.AppConfig) (View, error) {
	if data == nil {
		return View{}, fmt.Errorf("%w: no trip data", ErrInvalidView)
	}
	if cfg == nil {
		cfg = style.Default()
	}
	v := View{
		ID:        newID(),
		Name:      name,
		Timestamp: s.now().UnixMilli(),
		TripData:  data,
		Center:    center,
		Zoom:      zoom,
		Config:    cfg.Clone(),
	}
	if err := s.insert(ctx, v); err != nil {
		return View{}, err
	}
	return v, nil
}

func (s *Store) insert(ctx context.Context, v View) error {
	tripJSON, err := trip.ToJSON(v.TripData, false)
	if err != nil {
		return fmt.Errorf("encoding trip: %w", err)
	}
	cfgJSON, err := json.Marshal(v.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO views (id, name, created_at, trip_json, center_lat, center_lng, zoom, config_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Timestamp, string(tripJSON), v.Center.Lat, v.Center.Lng, v.Zoom, string(cfgJSON))
	if err != nil {
		return fmt.Errorf("failed to save view %q: %w", v.Name, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanView(row scanner) (View, error) {
	var (
		v                 View
		tripJSON, cfgJSON string
	)
	if err := row.Scan(&v.ID, &v.Name, &v.Timestamp, &tripJSON,
		&v.Center.Lat, &v.Center.Lng, &v.Zoom, &cfgJSON); err != nil {
		return View{}, err
	}

	data, err := trip.ParseJSON([]byte(tripJSON))
	if err != nil {
		return View{}, fmt.Errorf("view %s: %w", v.ID, err)
	}
	v.TripData = data

	v.Config = style.Default()
	if err := json.Unmarshal([]byte(cfgJSON), v.Config); err != nil {
		return View{}, fmt.Errorf("view %s: decoding config: %w", v.ID, err)
	}
	return v, nil
}

const selectViews = `SELECT id, name, created_at, trip_json, center_lat, center_lng, zoom, config_json FROM views`

// List returns every saved view, oldest first.
func (s *Store) List(ctx context.Context) ([]View, error) {
	rows, err := s.db.QueryContext(ctx, selectViews+` ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Get returns the view with the given id.
func (s *Store) Get(ctx context.Context, id string) (View, error) {
	v, err := scanView(s.db.QueryRowContext(ctx, selectViews+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return View{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return v, err
}

// Delete removes the view with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM views WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete view %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
