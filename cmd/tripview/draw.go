package main

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/render"
	"github.com/ha1tch/tripmap/pkg/style"
)

// Styles
var (
	styleSidebar  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSidebarH = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo  = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgOK    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBorder   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Dash patterns in pixels: on, period.
const (
	routeDashOn, routeDashPeriod   = 12.0, 20.0
	leaderDashOn, leaderDashPeriod = 4.0, 8.0
)

// canvas clips drawing to the map area and carries its background.
type canvas struct {
	screen     tcell.Screen
	cols, rows int
	bg         tcell.Color
}

func (c canvas) set(x, y int, r rune, fg tcell.Color) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return
	}
	c.screen.SetContent(x, y, r, nil, tcell.StyleDefault.Background(c.bg).Foreground(fg))
}

func (c canvas) text(x, y int, s string, st tcell.Style) {
	for _, r := range s {
		if x >= 0 && y >= 0 && x < c.cols && y < c.rows {
			c.screen.SetContent(x, y, r, nil, st)
		}
		x++
	}
}

// cellOf returns the cell containing pixel p.
func cellOf(p geo.Point) (int, int) {
	return int(math.Floor(p.X / cellW)), int(math.Floor(p.Y / cellH))
}

// lineRune picks a box-drawing rune for a pixel-space direction.
func lineRune(dx, dy float64) rune {
	a := math.Abs(math.Atan2(dy, dx) * 180 / math.Pi)
	switch {
	case a < 22.5 || a > 157.5:
		return '─'
	case a > 67.5 && a < 112.5:
		return '│'
	case dx*dy > 0:
		return '╲' // y grows downwards
	default:
		return '╱'
	}
}

var arrowRunes = []rune("↑↗→↘↓↙←↖")

// arrowRune returns the compass arrow closest to angle, in degrees
// clockwise from north.
func arrowRune(angle float64) rune {
	a := math.Mod(math.Mod(angle, 360)+360, 360)
	return arrowRunes[int(math.Round(a/45))%len(arrowRunes)]
}

// dashOn reports whether distance d along a dashed line is inked.
func dashOn(d, on, period float64) bool {
	return math.Mod(d, period) < on
}

// plot walks the polyline pts in pixels and calls fn for every cell it
// crosses, with the local direction and the distance travelled so far.
func plot(pts []geo.Point, fn func(cx, cy int, dx, dy, dist float64)) {
	const step = 2.0
	var travelled float64
	lastX, lastY := math.MinInt, math.MinInt
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		seg := math.Hypot(dx, dy)
		n := int(math.Ceil(seg / step))
		for k := 0; k <= n; k++ {
			t := 0.0
			if n > 0 {
				t = float64(k) / float64(n)
			}
			cx, cy := cellOf(geo.Point{X: a.X + dx*t, Y: a.Y + dy*t})
			if cx == lastX && cy == lastY {
				continue
			}
			lastX, lastY = cx, cy
			fn(cx, cy, dx, dy, travelled+seg*t)
		}
		travelled += seg
	}
}

func (v *Viewer) draw() {
	v.screen.Clear()
	w, h := v.screen.Size()
	cols, rows := v.canvasCells()

	sc := v.state.Scene()
	v.drawMap(sc, cols, rows)
	if v.showSidebar {
		v.drawSidebar(sc, cols, h)
	}
	v.drawStatusBar(w, h)
}

func (v *Viewer) drawMap(sc render.Scene, cols, rows int) {
	c := canvas{screen: v.screen, cols: cols, rows: rows, bg: tcell.ColorDefault}
	if sc.Base {
		c.bg = tcell.GetColor(sc.Background)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				c.set(x, y, ' ', tcell.ColorDefault)
			}
		}
		grid := tcell.GetColor(render.GridColor)
		for _, g := range sc.Grid {
			plot([]geo.Point{g.From, g.To}, func(cx, cy int, dx, dy, _ float64) {
				c.set(cx, cy, '·', grid)
			})
		}
	}

	vp := sc.Viewport

	// Routes
	for _, r := range sc.Routes {
		pts := make([]geo.Point, len(r.Points))
		for i, ll := range r.Points {
			pts[i] = vp.Project(ll)
		}
		col := tcell.GetColor(r.Style.Color)
		dashed := r.Dashed()
		plot(pts, func(cx, cy int, dx, dy, dist float64) {
			if dashed && !dashOn(dist, routeDashOn, routeDashPeriod) {
				return
			}
			c.set(cx, cy, lineRune(dx, dy), col)
		})
	}

	// Arrows
	for _, a := range sc.Arrows {
		cx, cy := cellOf(vp.Project(a.At))
		c.set(cx, cy, arrowRune(a.Angle), tcell.GetColor(a.Color))
	}

	// Nodes
	for _, n := range sc.Nodes {
		cx, cy := cellOf(vp.Project(n.Location.LatLng()))
		r := '●'
		if n.Location.IsStart || n.Location.IsEnd {
			r = '◉'
		}
		c.set(cx, cy, r, tcell.GetColor(n.Color))
	}

	// Leader lines
	grey := tcell.GetColor(render.LeaderGrey)
	for _, l := range sc.Leaders {
		plot([]geo.Point{l.From, l.To}, func(cx, cy int, dx, dy, dist float64) {
			if dashOn(dist, leaderDashOn, leaderDashPeriod) {
				c.set(cx, cy, '·', grey)
			}
		})
	}

	// Labels
	selected := v.selectedName()
	for _, l := range sc.Labels {
		st := tcell.StyleDefault.Background(tcell.GetColor(l.Bg)).Foreground(tcell.GetColor(l.Fg)).Bold(true)
		if l.Name == selected {
			st = st.Reverse(true)
		}
		text := " " + l.Name + " "
		center := l.Rect.Center()
		cx, cy := cellOf(center)
		c.text(cx-len([]rune(text))/2, cy, text, st)
	}
}

func (v *Viewer) drawSidebar(sc render.Scene, left, h int) {
	// Divider
	for y := 0; y < h-2; y++ {
		v.screen.SetContent(left, y, '│', nil, styleBorder)
	}

	x := left + 2
	width := v.sidebarWidth - 3
	y := 0

	title := sc.Title
	if title == "" {
		title = "Trip map"
	}
	v.drawString(x, y, truncate(title, width), styleSidebarH)
	y += 2

	cfg := v.state.Config()
	if p, ok := style.PresetByID(cfg.ActivePreset); ok {
		v.drawString(x, y, "Preset: "+p.Name, styleSidebar)
		y++
	}
	v.drawString(x, y, fmt.Sprintf("Zoom:   %.1f", sc.Viewport.Zoom), styleSidebar)
	y += 2

	// Layers
	v.drawString(x, y, "Layers:", styleSidebarH)
	y++
	opts := v.state.ViewOptions()
	layers := []struct {
		key  string
		name string
		on   bool
	}{
		{"1", "Base", opts.ShowBase},
		{"2", "Routes", opts.ShowRoutes},
		{"3", "Nodes", opts.ShowNodes},
		{"4", "Labels", opts.ShowLabels},
		{"5", "Arrows", opts.ShowArrows},
	}
	for _, l := range layers {
		mark := " "
		if l.on {
			mark = "x"
		}
		v.drawString(x, y, fmt.Sprintf("  %s [%s] %s", l.key, mark, l.name), styleSidebar)
		y++
	}
	y++

	// Legend
	if len(sc.Legend) > 0 {
		v.drawString(x, y, "Legend:", styleSidebarH)
		y++
		for _, rt := range sc.Legend {
			swatch := "━━"
			if rt.LineStyle == style.Dashed {
				swatch = "╍╍"
			}
			v.drawString(x+2, y, swatch, tcell.StyleDefault.Foreground(tcell.GetColor(rt.Color)))
			v.drawString(x+5, y, truncate(rt.Name, width-5), styleSidebar)
			y++
		}
		y++
	}

	// Locations
	v.drawString(x, y, "Labels:", styleSidebarH)
	y++
	for i, p := range v.state.Placed() {
		if y >= h-3 {
			v.drawString(x, y, "  ...", styleSidebar)
			return
		}
		st := styleSidebar
		if i == v.selected {
			st = st.Reverse(true)
		}
		line := fmt.Sprintf("  %-*s %s", width-14, truncate(p.Location.Name, width-14), p.Position)
		v.drawString(x, y, line, st)
		y++
	}
}

func (v *Viewer) drawStatusBar(w, h int) {
	y := h - 1

	// Background
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	fileInfo := "[Example]"
	if v.filename != "" {
		fileInfo = filepath.Base(v.filename)
	}
	v.drawString(1, y, fileInfo, styleStatus)

	if v.message != "" {
		st := styleMsgInfo
		switch v.messageType {
		case MsgError:
			st = styleMsgError
		case MsgSuccess:
			st = styleMsgOK
		}
		v.drawString(w-len([]rune(v.message))-2, y, v.message, st)
	}

	// Help bar
	v.drawString(1, h-2, v.helpString(), styleHelp)
}

func (v *Viewer) helpString() string {
	if v.selected >= 0 {
		return "Shift+Arrows:Move label  X:Remove  Tab:Next  Esc:Deselect  Q:Quit"
	}
	return "Arrows:Pan  +/-:Zoom  1-5:Layers  C:Preset  F:Fit  Tab:Select  E:PNG  S:SVG  B:Sidebar  Q:Quit"
}

func (v *Viewer) drawString(x, y int, s string, st tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, st)
		x++
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 {
		return ""
	}
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
