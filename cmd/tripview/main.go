// Command tripview is a terminal viewer for trip maps.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/render"
	"github.com/ha1tch/tripmap/pkg/style"
	"github.com/ha1tch/tripmap/pkg/trip"
)

// Terminal cells are treated as cellW x cellH pixel blocks.
const (
	cellW = 8
	cellH = 16
)

// Keyboard pan step as a fraction of the canvas.
const panFraction = 0.1

const zoomStep = 0.5

// MessageType for status messages
type MessageType int

const (
	MsgInfo MessageType = iota
	MsgError
	MsgSuccess
)

// Viewer holds all viewer state
type Viewer struct {
	screen    tcell.Screen
	state     *render.RenderState
	coalescer *render.Coalescer

	filename  string
	stylePath string

	message           string
	messageType       MessageType
	messageFlashStart int64

	// Label selected for moving/removal, -1 = none
	selected int

	sidebarWidth int
	showSidebar  bool
}

func main() {
	var filename, stylePath, logPath string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-s", "--style":
			if i+1 < len(args) {
				stylePath = args[i+1]
				i++
			}
		case "--log":
			if i+1 < len(args) {
				logPath = args[i+1]
				i++
			}
		case "-h", "--help":
			fmt.Println("Usage: tripview [trip.json] [-s style.yaml] [--log file]")
			return
		default:
			filename = args[i]
		}
	}

	// The screen owns stdout; diagnostics go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log %s: %v\n", logPath, err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg, err := style.Load(stylePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading style %s: %v\n", stylePath, err)
		os.Exit(1)
	}

	data := trip.Example()
	if filename != "" {
		raw, err := os.ReadFile(filename)
		if err == nil {
			data, err = trip.ParseJSON(raw)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", filename, err)
			os.Exit(1)
		}
	}

	// Initialize screen
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()
	screen.Clear()

	v := &Viewer{
		screen:       screen,
		filename:     filename,
		stylePath:    stylePath,
		selected:     -1,
		sidebarWidth: 30,
		showSidebar:  true,
	}
	w, h := v.canvasPixels()
	v.state = render.NewRenderState(*geo.NewViewport(w, h), cfg, logger)
	v.coalescer = render.NewCoalescer(render.DefaultSettleDelay, func() {
		v.state.OnViewportSettled()
		screen.PostEvent(tcell.NewEventInterrupt(nil))
	})

	if err := v.state.Render(data); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}
	if n := len(data.Dangling()); n > 0 {
		v.showMessage(fmt.Sprintf("%d segment(s) reference unknown locations", n), MsgError)
	}

	// Main loop
	v.run()

	v.coalescer.Stop()
	screen.Fini()
}

// canvasPixels returns the map area in pixels.
func (v *Viewer) canvasPixels() (float64, float64) {
	cols, rows := v.canvasCells()
	return float64(cols * cellW), float64(rows * cellH)
}

// canvasCells returns the map area in cells: the screen minus the sidebar
// and the two bottom bars.
func (v *Viewer) canvasCells() (int, int) {
	w, h := v.screen.Size()
	if v.showSidebar {
		w -= v.sidebarWidth
	}
	return max(1, w), max(1, h-2)
}

func (v *Viewer) run() {
	for {
		v.draw()
		v.screen.Show()

		ev := v.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.screen.Sync()
			v.resize()
		case *tcell.EventKey:
			if v.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			v.handleMouse(ev)
		case *tcell.EventInterrupt:
			// Layout settled or message posted - just redraw
		}
	}
}

func (v *Viewer) resize() {
	w, h := v.canvasPixels()
	v.state.MoveViewport(func(vp *geo.Viewport) { vp.Resize(w, h) })
	v.coalescer.Notify()
}

func (v *Viewer) pan(dx, dy float64) {
	v.state.MoveViewport(func(vp *geo.Viewport) { vp.Pan(dx, dy) })
	v.coalescer.Notify()
}

func (v *Viewer) zoom(delta float64) {
	v.state.MoveViewport(func(vp *geo.Viewport) { vp.ZoomBy(delta) })
	v.coalescer.Notify()
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	vp := v.state.Viewport()
	stepX, stepY := vp.Width*panFraction, vp.Height*panFraction
	moving := v.selected >= 0 && ev.Modifiers()&tcell.ModShift != 0

	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyEscape:
		v.selected = -1
		return false
	case tcell.KeyTab:
		v.cycleSelection()
		return false
	case tcell.KeyLeft:
		if moving {
			v.moveSelected(-cellW, 0)
		} else {
			v.pan(-stepX, 0)
		}
		return false
	case tcell.KeyRight:
		if moving {
			v.moveSelected(cellW, 0)
		} else {
			v.pan(stepX, 0)
		}
		return false
	case tcell.KeyUp:
		if moving {
			v.moveSelected(0, -cellH)
		} else {
			v.pan(0, -stepY)
		}
		return false
	case tcell.KeyDown:
		if moving {
			v.moveSelected(0, cellH)
		} else {
			v.pan(0, stepY)
		}
		return false
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		v.removeSelected()
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return true
	case '+', '=':
		v.zoom(zoomStep)
	case '-', '_':
		v.zoom(-zoomStep)
	case '1', '2', '3', '4', '5':
		v.toggleLayer(ev.Rune())
	case 'c', 'C':
		v.cyclePreset()
	case 'f', 'F':
		v.refit()
	case 'e', 'E':
		v.export("png")
	case 's', 'S':
		v.export("svg")
	case 'b', 'B':
		v.showSidebar = !v.showSidebar
		v.resize()
	case 'x', 'X':
		v.removeSelected()
	}
	return false
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		v.zoom(zoomStep)
	case ev.Buttons()&tcell.WheelDown != 0:
		v.zoom(-zoomStep)
	case ev.Buttons()&tcell.Button1 != 0:
		// Click selects the label under the cursor
		x, y := ev.Position()
		px, py := float64(x*cellW+cellW/2), float64(y*cellH+cellH/2)
		v.selected = -1
		for i, p := range v.state.Placed() {
			r := p.Rect
			if px >= r.Left && px <= r.Right && py >= r.Top && py <= r.Bottom {
				v.selected = i
				break
			}
		}
	}
}

// toggleLayer flips one of the numbered layers.
func (v *Viewer) toggleLayer(key rune) {
	opts := v.state.ViewOptions()
	var name string
	var on bool
	switch key {
	case '1':
		opts.ShowBase = !opts.ShowBase
		name, on = "Base", opts.ShowBase
	case '2':
		opts.ShowRoutes = !opts.ShowRoutes
		name, on = "Routes", opts.ShowRoutes
	case '3':
		opts.ShowNodes = !opts.ShowNodes
		name, on = "Nodes", opts.ShowNodes
	case '4':
		opts.ShowLabels = !opts.ShowLabels
		name, on = "Labels", opts.ShowLabels
	case '5':
		opts.ShowArrows = !opts.ShowArrows
		name, on = "Arrows", opts.ShowArrows
	}
	v.state.UpdateViewOptions(opts)

	state := "hidden"
	if on {
		state = "shown"
	}
	v.showMessage(name+" "+state, MsgInfo)
}

func (v *Viewer) cyclePreset() {
	cfg := v.state.Config()
	next := style.NextPreset(cfg.ActivePreset)
	if err := cfg.ApplyPreset(next); err != nil {
		v.showMessage(err.Error(), MsgError)
		return
	}
	if err := v.state.UpdateConfig(cfg); err != nil {
		v.showMessage(err.Error(), MsgError)
		return
	}
	v.selected = -1
	p, _ := style.PresetByID(next)
	v.showMessage("Preset: "+p.Name, MsgSuccess)
}

func (v *Viewer) refit() {
	if err := v.state.Render(v.state.Data()); err != nil {
		v.showMessage(err.Error(), MsgError)
		return
	}
	v.selected = -1
}

func (v *Viewer) cycleSelection() {
	n := len(v.state.Placed())
	if n == 0 {
		v.selected = -1
		return
	}
	v.selected = (v.selected + 1) % n
}

func (v *Viewer) selectedName() string {
	placed := v.state.Placed()
	if v.selected < 0 || v.selected >= len(placed) {
		return ""
	}
	return placed[v.selected].Location.Name
}

func (v *Viewer) moveSelected(dx, dy float64) {
	if name := v.selectedName(); name != "" {
		if err := v.state.MoveLabel(name, dx, dy); err != nil {
			v.showMessage(err.Error(), MsgError)
		}
	}
}

func (v *Viewer) removeSelected() {
	name := v.selectedName()
	if name == "" {
		return
	}
	if err := v.state.RemoveLabel(name); err != nil {
		v.showMessage(err.Error(), MsgError)
		return
	}
	v.selected = -1
	v.showMessage("Removed label "+name, MsgSuccess)
}

// exportPath returns the output file for format next to the trip file.
func (v *Viewer) exportPath(format string) string {
	base := "tripmap"
	if v.filename != "" {
		base = strings.TrimSuffix(v.filename, filepath.Ext(v.filename))
	}
	return base + "." + format
}

func (v *Viewer) export(format string) {
	var r render.Rasterizer
	switch format {
	case "png":
		r = render.NewPNGRasterizer(render.DefaultPNGOptions())
	default:
		r = render.SVGRasterizer{Options: render.DefaultSVGOptions()}
	}

	// Export what is on screen.
	opts := v.state.ViewOptions()
	eo := render.ExportOptions{
		IncludeBase:   opts.ShowBase,
		IncludeRoutes: opts.ShowRoutes,
		IncludeLabels: opts.ShowLabels,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	img, err := v.state.Export(ctx, eo, r)
	if err != nil {
		v.showMessage(err.Error(), MsgError)
		return
	}

	path := v.exportPath(format)
	if err := os.WriteFile(path, img, 0644); err != nil {
		v.showMessage(err.Error(), MsgError)
		return
	}
	v.showMessage("Exported "+path, MsgSuccess)
}

func (v *Viewer) showMessage(msg string, msgType MessageType) {
	v.message = msg
	v.messageType = msgType
	v.messageFlashStart = time.Now().UnixMilli()
	if v.screen != nil {
		v.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}
