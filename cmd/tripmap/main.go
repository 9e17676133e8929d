// Command tripmap renders trip itineraries as annotated maps.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/layout"
	"github.com/ha1tch/tripmap/pkg/render"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
)

const usage = `tripmap - trip itinerary map renderer

Usage:
  tripmap <command> [options]

Commands:
  render     Render a trip to SVG or PNG
  layout     Print label placements
  info       Show trip information
  validate   Validate a trip file
  example    Write the built-in example trip
  style      Write a style file
  views      Manage saved views (list, save, show, delete, export, import, render)

Examples:
  tripmap example -o alaska.json
  tripmap render alaska.json -o alaska.svg
  tripmap render alaska.json -o alaska.png --preset ocean --size 1200x800
  tripmap layout alaska.json
  tripmap views save alaska.json --name "Summer 2024"

Trip files may be "-" to read standard input.
`

const defaultSize = "1200x800"

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "render":
		cmdRender(args)
	case "layout":
		cmdLayout(args)
	case "info":
		cmdInfo(args)
	case "validate":
		cmdValidate(args)
	case "example":
		cmdExample(args)
	case "style":
		cmdStyle(args)
	case "views":
		cmdViews(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

// renderFlags are shared by render and views render.
type renderFlags struct {
	output    string
	format    string
	stylePath string
	preset    string
	size      string
	minSide   int
	noBase    bool
	noRoutes  bool
	noLabels  bool
	noNodes   bool
	noArrows  bool
	noTitle   bool
	noLegend  bool
	verbose   bool
}

// parse consumes the flags it knows and returns the rest.
func (f *renderFlags) parse(args []string) []string {
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				f.output = args[i+1]
				i++
			}
		case "-f", "--format":
			if i+1 < len(args) {
				f.format = args[i+1]
				i++
			}
		case "-s", "--style":
			if i+1 < len(args) {
				f.stylePath = args[i+1]
				i++
			}
		case "-p", "--preset":
			if i+1 < len(args) {
				f.preset = args[i+1]
				i++
			}
		case "--size":
			if i+1 < len(args) {
				f.size = args[i+1]
				i++
			}
		case "--min-side":
			if i+1 < len(args) {
				n, err := strconv.Atoi(args[i+1])
				if err != nil {
					fatalf("Invalid --min-side %q\n", args[i+1])
				}
				f.minSide = n
				i++
			}
		case "--no-base":
			f.noBase = true
		case "--no-routes":
			f.noRoutes = true
		case "--no-labels":
			f.noLabels = true
		case "--no-nodes":
			f.noNodes = true
		case "--no-arrows":
			f.noArrows = true
		case "--no-title":
			f.noTitle = true
		case "--no-legend":
			f.noLegend = true
		case "-v", "--verbose":
			f.verbose = true
		default:
			rest = append(rest, args[i])
		}
	}
	return rest
}

func (f *renderFlags) config() *style.AppConfig {
	cfg, err := style.Load(f.stylePath)
	if err != nil {
		fatalf("Error loading style %s: %v\n", f.stylePath, err)
	}
	if f.preset != "" {
		if err := cfg.ApplyPreset(f.preset); err != nil {
			fatalf("Error: %v\n", err)
		}
	}
	return cfg
}

func (f *renderFlags) viewport() *geo.Viewport {
	size := f.size
	if size == "" {
		size = defaultSize
	}
	w, h, err := parseSize(size)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	return geo.NewViewport(w, h)
}

func (f *renderFlags) rasterizer() render.Rasterizer {
	format := f.format
	if format == "" {
		if strings.EqualFold(filepath.Ext(f.output), ".png") {
			format = "png"
		} else {
			format = "svg"
		}
	}

	switch strings.ToLower(format) {
	case "svg":
		opts := render.DefaultSVGOptions()
		opts.ShowTitle = !f.noTitle
		opts.ShowLegend = !f.noLegend
		return render.SVGRasterizer{Options: opts}
	case "png":
		opts := render.DefaultPNGOptions()
		opts.ShowTitle = !f.noTitle
		opts.ShowLegend = !f.noLegend
		if f.minSide > 0 {
			opts.MinSide = f.minSide
		}
		return render.NewPNGRasterizer(opts)
	default:
		fatalf("Unknown output format: %s\n", format)
		return nil
	}
}

func (f *renderFlags) exportOptions() render.ExportOptions {
	opts := render.ExportOptions{
		IncludeBase:   !f.noBase,
		IncludeRoutes: !f.noRoutes,
		IncludeLabels: !f.noLabels,
	}
	if f.noNodes {
		opts.IncludeNodes = new(bool)
	}
	if f.noArrows {
		opts.IncludeArrows = new(bool)
	}
	return opts
}

func (f *renderFlags) export(state *render.RenderState) {
	img, err := state.Export(context.Background(), f.exportOptions(), f.rasterizer())
	if err != nil {
		fatalf("Error rendering: %v\n", err)
	}

	if f.output == "" {
		os.Stdout.Write(img)
		return
	}
	if err := os.WriteFile(f.output, img, 0644); err != nil {
		fatalf("Error writing %s: %v\n", f.output, err)
	}
	fmt.Printf("Written: %s\n", f.output)
}

func cmdRender(args []string) {
	var f renderFlags
	rest := f.parse(args)
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tripmap render <input> [-o output] [-f svg|png] [-s style.yaml] [-p preset] [--size WxH] [--min-side N] [--no-base] [--no-routes] [--no-labels] [--no-nodes] [--no-arrows] [--no-title] [--no-legend]")
		os.Exit(1)
	}

	data := mustLoadTrip(rest[0])
	state := render.NewRenderState(*f.viewport(), f.config(), newLogger(f.verbose))
	if err := state.Render(data); err != nil {
		fatalf("Error rendering %s: %v\n", rest[0], err)
	}
	f.export(state)
}

func cmdLayout(args []string) {
	var f renderFlags
	rest := f.parse(args)
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tripmap layout <input> [-s style.yaml] [--size WxH] [-v]")
		os.Exit(1)
	}

	data := mustLoadTrip(rest[0])
	state := render.NewRenderState(*f.viewport(), f.config(), newLogger(f.verbose))
	if err := state.Render(data); err != nil {
		fatalf("Error rendering %s: %v\n", rest[0], err)
	}

	vp := state.Viewport()
	fmt.Printf("Viewport: %gx%g centre %.4f,%.4f zoom %.2f\n", vp.Width, vp.Height, vp.Center.Lat, vp.Center.Lng, vp.Zoom)
	fmt.Println()

	placed := state.Placed()
	for _, p := range placed {
		r := p.Rect
		fmt.Printf("  %-24s %-12s [%7.1f %7.1f %7.1f %7.1f]\n", p.Location.Name, p.Position, r.Left, r.Top, r.Right, r.Bottom)
	}
	fmt.Println()
	fmt.Printf("Overlaps:     %d\n", layout.Overlaps(placed))

	leaders := state.Leaders()
	fmt.Printf("Leader lines: %d\n", len(leaders))
	for _, l := range leaders {
		fmt.Printf("  %-24s (%.1f,%.1f) -> (%.1f,%.1f)\n", l.Name, l.From.X, l.From.Y, l.To.X, l.To.Y)
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tripmap info <input>")
		os.Exit(1)
	}

	data := mustLoadTrip(args[0])
	unique := trip.Dedupe(data.Locations)

	if data.Title != "" {
		fmt.Printf("Title:      %s\n", data.Title)
	}
	fmt.Printf("Locations:  %d (%d unique)\n", len(data.Locations), len(unique))
	fmt.Printf("Segments:   %d\n", len(data.Segments))
	fmt.Printf("Transports: %s\n", strings.Join(data.Transports(), ", "))

	for _, loc := range trip.SortByPriority(unique) {
		if loc.IsStart {
			fmt.Printf("Start:      %s\n", loc.Name)
		}
		if loc.IsEnd {
			fmt.Printf("End:        %s\n", loc.Name)
		}
	}

	if b, ok := geo.BoundsOf(trip.Coords(unique)); ok {
		c := b.Center()
		fmt.Printf("Bounds:     %.4f,%.4f to %.4f,%.4f (centre %.4f,%.4f)\n", b.South, b.West, b.North, b.East, c.Lat, c.Lng)
	}

	var km float64
	index := trip.Index(unique)
	for _, seg := range data.Segments {
		from, okFrom := index[seg.From]
		to, okTo := index[seg.To]
		if okFrom && okTo {
			km += geo.Distance(from.LatLng(), to.LatLng())
		}
	}
	fmt.Printf("Distance:   %.0f km (great circle)\n", km)
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tripmap validate <input>")
		os.Exit(1)
	}

	input := args[0]
	data := mustLoadTrip(input)

	if err := data.Validate(); err != nil {
		fatalf("Validation failed: %v\n", err)
	}

	dangling := data.Dangling()
	for _, d := range dangling {
		fmt.Fprintf(os.Stderr, "Warning: %s (segment will not be drawn)\n", d)
	}

	fmt.Printf("%s: valid trip with %d locations, %d segments\n",
		input, len(data.Locations), len(data.Segments))
}

func cmdExample(args []string) {
	var output string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				output = args[i+1]
				i++
			}
		}
	}

	data, err := trip.ToJSON(trip.Example(), true)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	writeOutput(output, append(data, '\n'))
}

func cmdStyle(args []string) {
	var output, preset, input string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				output = args[i+1]
				i++
			}
		case "-p", "--preset":
			if i+1 < len(args) {
				preset = args[i+1]
				i++
			}
		default:
			input = args[i]
		}
	}

	cfg, err := style.Load(input)
	if err != nil {
		fatalf("Error loading %s: %v\n", input, err)
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			fatalf("Error: %v\n", err)
		}
	}

	data, err := style.Marshal(cfg)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	writeOutput(output, data)
}

func writeOutput(path string, data []byte) {
	if path == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fatalf("Error writing %s: %v\n", path, err)
	}
	fmt.Printf("Written: %s\n", path)
}

func loadTrip(path string) (*trip.TripData, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return trip.ParseJSON(data)
}

func mustLoadTrip(path string) *trip.TripData {
	data, err := loadTrip(path)
	if err != nil {
		fatalf("Error loading %s: %v\n", path, err)
	}
	return data
}

func parseSize(s string) (w, h float64, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	w, errW := strconv.ParseFloat(ws, 64)
	h, errH := strconv.ParseFloat(hs, 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	return w, h, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
	os.Exit(1)
}
