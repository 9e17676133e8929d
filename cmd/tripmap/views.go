package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/render"
	"github.com/ha1tch/tripmap/pkg/viewstore"
)

const viewsUsage = `Usage: tripmap views <subcommand> [--db path]

Subcommands:
  list                                   List saved views
  save <trip> --name N [--center LAT,LNG] [--zoom Z] [-s style.yaml] [-p preset]
  show <id>                              Show a saved view
  delete <id>                            Delete a saved view
  export <id> [-o file]                  Write a view file
  import <file>                          Import a view file
  render <id> [-o output] [render flags] Render a saved view

The database defaults to $TRIPMAP_DB, then tripmap.db.
`

func cmdViews(args []string) {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, viewsUsage)
		os.Exit(1)
	}

	sub := args[0]
	dbPath := os.Getenv("TRIPMAP_DB")
	if dbPath == "" {
		dbPath = "tripmap.db"
	}

	var rest []string
	rargs := args[1:]
	for i := 0; i < len(rargs); i++ {
		if rargs[i] == "--db" && i+1 < len(rargs) {
			dbPath = rargs[i+1]
			i++
			continue
		}
		rest = append(rest, rargs[i])
	}

	ctx := context.Background()
	store, err := viewstore.Open(ctx, dbPath)
	if err != nil {
		fatalf("Error opening %s: %v\n", dbPath, err)
	}
	defer store.Close()

	switch sub {
	case "list":
		viewsList(ctx, store)
	case "save":
		viewsSave(ctx, store, rest)
	case "show":
		viewsShow(ctx, store, rest)
	case "delete":
		viewsDelete(ctx, store, rest)
	case "export":
		viewsExport(ctx, store, rest)
	case "import":
		viewsImport(ctx, store, rest)
	case "render":
		viewsRender(ctx, store, rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown views subcommand: %s\n", sub)
		fmt.Fprint(os.Stderr, viewsUsage)
		os.Exit(1)
	}
}

func viewsList(ctx context.Context, store *viewstore.Store) {
	views, err := store.List(ctx)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	if len(views) == 0 {
		fmt.Println("No saved views")
		return
	}
	for _, v := range views {
		fmt.Printf("%s  %-24s %s  %d locations\n",
			v.ID, v.Name, v.Created().Format("2006-01-02 15:04"), len(v.TripData.Locations))
	}
}

func viewsSave(ctx context.Context, store *viewstore.Store, args []string) {
	var (
		f      renderFlags
		name   string
		center string
		zoom   float64
	)
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-n", "--name":
			if i+1 < len(args) {
				name = args[i+1]
				i++
			}
		case "--center":
			if i+1 < len(args) {
				center = args[i+1]
				i++
			}
		case "--zoom":
			if i+1 < len(args) {
				z, err := strconv.ParseFloat(args[i+1], 64)
				if err != nil {
					fatalf("Invalid --zoom %q\n", args[i+1])
				}
				zoom = z
				i++
			}
		default:
			rest = append(rest, args[i])
		}
	}
	rest = f.parse(rest)
	if len(rest) < 1 || name == "" {
		fmt.Fprint(os.Stderr, viewsUsage)
		os.Exit(1)
	}

	data := mustLoadTrip(rest[0])
	cfg := f.config()

	// Unless given, take centre and zoom from the fitted view.
	state := render.NewRenderState(*f.viewport(), cfg, newLogger(f.verbose))
	if err := state.Render(data); err != nil {
		fatalf("Error rendering %s: %v\n", rest[0], err)
	}
	vp := state.Viewport()
	at := vp.Center
	if center != "" {
		ll, err := parseLatLng(center)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		at = ll
	}
	if zoom == 0 {
		zoom = vp.Zoom
	}

	v, err := store.Save(ctx, name, data, at, zoom, cfg)
	if err != nil {
		fatalf("Error saving view: %v\n", err)
	}
	fmt.Printf("Saved: %s\n", v.ID)
}

func viewsShow(ctx context.Context, store *viewstore.Store, args []string) {
	if len(args) < 1 {
		fatalf("Usage: tripmap views show <id>\n")
	}
	v, err := store.Get(ctx, args[0])
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	fmt.Printf("ID:        %s\n", v.ID)
	fmt.Printf("Name:      %s\n", v.Name)
	fmt.Printf("Saved:     %s\n", v.Created().Format("2006-01-02 15:04:05"))
	fmt.Printf("Trip:      %s\n", v.TripData)
	fmt.Printf("Centre:    %.4f,%.4f\n", v.Center.Lat, v.Center.Lng)
	fmt.Printf("Zoom:      %.2f\n", v.Zoom)
	fmt.Printf("Preset:    %s\n", v.Config.ActivePreset)
}

func viewsDelete(ctx context.Context, store *viewstore.Store, args []string) {
	if len(args) < 1 {
		fatalf("Usage: tripmap views delete <id>\n")
	}
	if err := store.Delete(ctx, args[0]); err != nil {
		fatalf("Error: %v\n", err)
	}
	fmt.Printf("Deleted: %s\n", args[0])
}

func viewsExport(ctx context.Context, store *viewstore.Store, args []string) {
	var id, output string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				output = args[i+1]
				i++
			}
		default:
			id = args[i]
		}
	}
	if id == "" {
		fatalf("Usage: tripmap views export <id> [-o file]\n")
	}

	v, err := store.Get(ctx, id)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	if output == "" {
		output = v.FileName()
	}

	out, err := os.Create(output)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	if err := viewstore.Encode(out, v); err != nil {
		out.Close()
		fatalf("Error writing %s: %v\n", output, err)
	}
	if err := out.Close(); err != nil {
		fatalf("Error writing %s: %v\n", output, err)
	}
	fmt.Printf("Written: %s\n", output)
}

func viewsImport(ctx context.Context, store *viewstore.Store, args []string) {
	if len(args) < 1 {
		fatalf("Usage: tripmap views import <file>\n")
	}
	in, err := os.Open(args[0])
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer in.Close()

	v, err := store.Import(ctx, in)
	if err != nil {
		fatalf("Error importing %s: %v\n", args[0], err)
	}
	fmt.Printf("Imported: %s (%s)\n", v.ID, v.Name)
}

func viewsRender(ctx context.Context, store *viewstore.Store, args []string) {
	var f renderFlags
	rest := f.parse(args)
	if len(rest) < 1 {
		fatalf("Usage: tripmap views render <id> [-o output] [render flags]\n")
	}

	v, err := store.Get(ctx, rest[0])
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	cfg := v.Config
	if f.stylePath != "" || f.preset != "" {
		cfg = f.config()
	}
	state := render.NewRenderState(*f.viewport(), cfg, newLogger(f.verbose))
	if err := state.Restore(v.TripData, v.Center, v.Zoom); err != nil {
		fatalf("Error rendering view %s: %v\n", v.ID, err)
	}
	f.export(state)
}

func parseLatLng(s string) (geo.LatLng, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return geo.LatLng{}, fmt.Errorf("invalid centre %q, want LAT,LNG", s)
	}
	la, errLat := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	ln, errLng := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if errLat != nil || errLng != nil {
		return geo.LatLng{}, fmt.Errorf("invalid centre %q, want LAT,LNG", s)
	}
	return geo.LatLng{Lat: la, Lng: ln}, nil
}
