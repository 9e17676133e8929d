// Native PNG rasterization of trip map scenes.
// Mirrors the SVG writer output using Go's image packages.

package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/style"
)

// PNGOptions configures PNG rasterization.
type PNGOptions struct {
	MinSide     int  // smallest output side in pixels; smaller maps are scaled up
	Supersample int  // render at this multiple and downsample
	MaxCanvas   int  // largest output side; supersampling is reduced to fit
	ShowTitle   bool // draw the trip title
	ShowLegend  bool
}

// DefaultPNGOptions returns sensible defaults for PNG export.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		MinSide:     2000,
		Supersample: 2,
		MaxCanvas:   8192,
		ShowTitle:   true,
		ShowLegend:  true,
	}
}

var (
	colorWhite = color.RGBA{255, 255, 255, 255}
	colorInk   = color.RGBA{26, 29, 35, 255} // #1a1d23
)

// PNGRasterizer renders scenes to PNG.
type PNGRasterizer struct {
	Options PNGOptions
}

// NewPNGRasterizer returns a rasterizer with the given options.
func NewPNGRasterizer(opts PNGOptions) *PNGRasterizer {
	return &PNGRasterizer{Options: opts}
}

// OutputSize returns the pixel size of the image produced for a viewport of
// the given size. The smaller side is raised to MinSide, but neither side
// may exceed MaxCanvas.
func (r *PNGRasterizer) OutputSize(width, height float64) (w, h int, scale float64) {
	scale = 1.0
	if minDim := math.Min(width, height); minDim > 0 && minDim < float64(r.Options.MinSide) {
		scale = float64(r.Options.MinSide) / minDim
	}
	if limit := float64(r.Options.MaxCanvas); limit > 0 && math.Max(width, height)*scale > limit {
		scale = limit / math.Max(width, height)
	}
	w = max(1, int(math.Round(width*scale)))
	h = max(1, int(math.Round(height*scale)))
	return w, h, scale
}

// Rasterize renders scene and encodes it as PNG.
func (r *PNGRasterizer) Rasterize(ctx context.Context, scene Scene) ([]byte, error) {
	vp := scene.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, fmt.Errorf("cannot rasterize a %gx%g viewport", vp.Width, vp.Height)
	}

	outW, outH, scale := r.OutputSize(vp.Width, vp.Height)
	ss := max(1, r.Options.Supersample)
	for ss > 1 && r.Options.MaxCanvas > 0 && max(outW, outH)*ss > r.Options.MaxCanvas {
		ss--
	}

	large := image.NewRGBA(image.Rect(0, 0, outW*ss, outH*ss))
	rc, err := newRenderContext(large, scale*float64(ss))
	if err != nil {
		return nil, err
	}

	steps := []func(Scene){
		rc.drawBase,
		rc.drawRoutes,
		rc.drawArrows,
		rc.drawNodes,
		rc.drawLeaders,
		rc.drawLabels,
	}
	if r.Options.ShowLegend {
		steps = append(steps, rc.drawLegend)
	}
	if r.Options.ShowTitle {
		steps = append(steps, rc.drawTitle)
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step(scene)
	}

	final := large
	if ss > 1 {
		final = image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, final); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// renderContext holds the target image and the viewport-to-image scale.
type renderContext struct {
	img   *image.RGBA
	scale float64
	font  *opentype.Font
	faces map[float64]font.Face
}

func newRenderContext(img *image.RGBA, scale float64) (*renderContext, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	return &renderContext{img: img, scale: scale, font: fnt, faces: make(map[float64]font.Face)}, nil
}

// face returns a font face for a size in viewport pixels.
func (rc *renderContext) face(size float64) font.Face {
	if f, ok := rc.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(rc.font, &opentype.FaceOptions{
		Size:    size * rc.scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil
	}
	rc.faces[size] = f
	return f
}

// pt maps a viewport pixel to an image pixel.
func (rc *renderContext) pt(p geo.Point) geo.Point {
	return geo.Point{X: p.X * rc.scale, Y: p.Y * rc.scale}
}

func rgba(hex string, fallback color.RGBA) color.RGBA {
	c, err := style.ParseColor(hex)
	if err != nil {
		return fallback
	}
	return toRGBA(c)
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

func (rc *renderContext) drawBase(scene Scene) {
	if !scene.Base {
		return
	}
	bg := rgba(scene.Background, colorWhite)
	draw.Draw(rc.img, rc.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	grid := rgba(GridColor, colorWhite)
	for _, g := range scene.Grid {
		a, b := rc.pt(g.From), rc.pt(g.To)
		rc.line(a.X, a.Y, b.X, b.Y, rc.scale, grid)
	}
}

func (rc *renderContext) drawRoutes(scene Scene) {
	vp := scene.Viewport
	for _, r := range scene.Routes {
		pts := make([]geo.Point, len(r.Points))
		for i, ll := range r.Points {
			pts[i] = rc.pt(vp.Project(ll))
		}
		c := rgba(r.Style.Color, rgba(style.FallbackRouteColor, colorInk))
		width := r.Style.Width() * rc.scale
		if r.Dashed() {
			rc.dashedPolyline(pts, width, 12*rc.scale, 8*rc.scale, c)
		} else {
			rc.polyline(pts, width, c)
		}
	}
}

func (rc *renderContext) drawArrows(scene Scene) {
	vp := scene.Viewport
	for _, a := range scene.Arrows {
		at := vp.Project(a.At)
		glyph := a.Glyph()
		poly := make([]geo.Point, len(glyph))
		for i, p := range glyph {
			poly[i] = rc.pt(geo.Point{X: at.X + p.X, Y: at.Y + p.Y})
		}
		rc.fillPolygon(poly, rgba(a.Color, colorInk))
	}
}

func (rc *renderContext) drawNodes(scene Scene) {
	vp := scene.Viewport
	for _, n := range scene.Nodes {
		c := rc.pt(vp.Project(n.Location.LatLng()))
		outer := (n.Radius + n.BorderWidth/2) * rc.scale
		inner := (n.Radius - n.BorderWidth/2) * rc.scale
		rc.disc(c.X, c.Y, outer, colorWhite)
		rc.disc(c.X, c.Y, inner, rgba(n.Color, colorInk))
	}
}

func (rc *renderContext) drawLeaders(scene Scene) {
	grey := rgba(LeaderGrey, colorInk)
	for _, l := range scene.Leaders {
		a, b := rc.pt(l.From), rc.pt(l.To)
		rc.dashedPolyline([]geo.Point{a, b}, rc.scale, 4*rc.scale, 4*rc.scale, grey)
	}
}

func (rc *renderContext) drawLabels(scene Scene) {
	for _, l := range scene.Labels {
		tl := rc.pt(geo.Point{X: l.Rect.Left, Y: l.Rect.Top})
		br := rc.pt(geo.Point{X: l.Rect.Right, Y: l.Rect.Bottom})
		rect := image.Rect(int(tl.X), int(tl.Y), int(math.Ceil(br.X)), int(math.Ceil(br.Y)))
		draw.Draw(rc.img, rect, image.NewUniform(rgba(l.Bg, colorWhite)), image.Point{}, draw.Src)

		c := rc.pt(l.Rect.Center())
		rc.textCentered(c.X, c.Y, l.Name, l.FontSize, rgba(l.Fg, colorInk))
	}
}

func (rc *renderContext) drawLegend(scene Scene) {
	if len(scene.Legend) == 0 {
		return
	}
	ls := scene.LegendStyle
	s := ls.Scale
	if s <= 0 {
		s = 1
	}
	w, h := legendBox(scene.Legend)
	ox := ls.Position.X
	oy := scene.Viewport.Height - ls.Position.Y - h*s

	tl := rc.pt(geo.Point{X: ox, Y: oy})
	br := rc.pt(geo.Point{X: ox + w*s, Y: oy + h*s})
	draw.Draw(rc.img, image.Rect(int(tl.X), int(tl.Y), int(br.X), int(br.Y)),
		image.NewUniform(colorWhite), image.Point{}, draw.Src)

	for i, rt := range scene.Legend {
		cy := oy + (legendPad+float64(i)*legendRow+legendRow/2)*s
		a := rc.pt(geo.Point{X: ox + legendPad*s, Y: cy})
		b := rc.pt(geo.Point{X: ox + (legendPad+legendSwatch-6)*s, Y: cy})
		c := rgba(rt.Color, colorInk)
		if rt.LineStyle == style.Dashed {
			rc.dashedPolyline([]geo.Point{a, b}, 4*s*rc.scale, 6*s*rc.scale, 4*s*rc.scale, c)
		} else {
			rc.line(a.X, a.Y, b.X, b.Y, 4*s*rc.scale, c)
		}

		face := rc.face(legendFontSize * s)
		if face == nil {
			continue
		}
		tx := rc.pt(geo.Point{X: ox + (legendPad+legendSwatch)*s, Y: cy})
		rc.text(face, tx.X, tx.Y, rt.Name, colorInk)
	}
}

func (rc *renderContext) drawTitle(scene Scene) {
	if scene.Title == "" {
		return
	}
	c := rc.pt(geo.Point{X: scene.Viewport.Width / 2, Y: 30})
	rc.textCentered(c.X, c.Y, scene.Title, 20, colorInk)
}

// line draws a straight line of the given thickness.
func (rc *renderContext) line(x1, y1, x2, y2, thickness float64, c color.Color) {
	img := rc.img
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Sqrt(dx*dx + dy*dy)
	half := math.Max(thickness/2, 0.5)

	if dist < 1 {
		rc.disc(x1, y1, half, c)
		return
	}

	perpX := -dy / dist
	perpY := dx / dist
	steps := math.Ceil(dist * 2)

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -half; offset <= half; offset += 0.5 {
			img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}
}

func (rc *renderContext) polyline(pts []geo.Point, thickness float64, c color.Color) {
	for i := 1; i < len(pts); i++ {
		rc.line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, thickness, c)
		rc.disc(pts[i].X, pts[i].Y, thickness/2, c) // round joins
	}
	if len(pts) > 0 {
		rc.disc(pts[0].X, pts[0].Y, thickness/2, c)
	}
}

// dashedPolyline strokes pts with an on/off dash pattern that continues
// across vertices.
func (rc *renderContext) dashedPolyline(pts []geo.Point, thickness, on, off float64, c color.Color) {
	period := on + off
	if period <= 0 {
		rc.polyline(pts, thickness, c)
		return
	}
	phase := 0.0
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := geo.Dist(a, b)
		if segLen == 0 {
			continue
		}
		ux := (b.X - a.X) / segLen
		uy := (b.Y - a.Y) / segLen

		pos := 0.0
		for pos < segLen {
			inDash := phase < on
			var run float64
			if inDash {
				run = math.Min(on-phase, segLen-pos)
			} else {
				run = math.Min(period-phase, segLen-pos)
			}
			if inDash {
				rc.line(a.X+ux*pos, a.Y+uy*pos, a.X+ux*(pos+run), a.Y+uy*(pos+run), thickness, c)
			}
			pos += run
			phase = math.Mod(phase+run, period)
		}
	}
}

// disc fills a circle.
func (rc *renderContext) disc(cx, cy, r float64, c color.Color) {
	if r <= 0 {
		return
	}
	for dy := -r; dy <= r; dy++ {
		xExtent := math.Sqrt(math.Max(0, r*r-dy*dy))
		for dx := -xExtent; dx <= xExtent; dx++ {
			rc.img.Set(int(cx+dx), int(cy+dy), c)
		}
	}
}

// fillPolygon fills a simple polygon with the even-odd rule.
func (rc *renderContext) fillPolygon(poly []geo.Point, c color.Color) {
	if len(poly) < 3 {
		return
	}
	minY, maxY := poly[0].Y, poly[0].Y
	for _, p := range poly[1:] {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	for y := math.Floor(minY); y <= maxY; y++ {
		sy := y + 0.5
		var xs []float64
		for i := range poly {
			a, b := poly[i], poly[(i+1)%len(poly)]
			if (a.Y <= sy) == (b.Y <= sy) {
				continue
			}
			xs = append(xs, a.X+(sy-a.Y)/(b.Y-a.Y)*(b.X-a.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := math.Floor(xs[i]); x < xs[i+1]; x++ {
				rc.img.Set(int(x), int(y), c)
			}
		}
	}
}

// textCentered draws text centred on x, y (image pixels).
func (rc *renderContext) textCentered(x, y float64, text string, size float64, c color.Color) {
	face := rc.face(size)
	if face == nil {
		return
	}
	width := font.MeasureString(face, text).Ceil()
	rc.text(face, x-float64(width)/2, y, text, c)
}

// text draws text starting at x with its vertical centre on y.
func (rc *renderContext) text(face font.Face, x, y float64, text string, c color.Color) {
	metrics := face.Metrics()
	// Cap height is roughly 0.7 of the ascent.
	baseline := y + float64(metrics.Ascent.Ceil())*0.35

	d := &font.Drawer{
		Dst:  rc.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(int(x)), Y: fixed.I(int(baseline))},
	}
	d.DrawString(text)
}
