package render

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/ha1tch/tripmap/pkg/geo"
	"github.com/ha1tch/tripmap/pkg/layout"
	"github.com/ha1tch/tripmap/pkg/style"
)

// SVGOptions controls SVG output.
type SVGOptions struct {
	FontFamily string
	ShowTitle  bool
	ShowLegend bool
	TitleSize  float64 // 0 = 20
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		FontFamily: "Helvetica, Arial, sans-serif",
		ShowTitle:  true,
		ShowLegend: true,
		TitleSize:  20,
	}
}

// legend geometry, before scaling
const (
	legendPad      = 10.0
	legendRow      = 22.0
	legendSwatch   = 30.0
	legendFontSize = 12.0
)

// legendBox returns the unscaled legend size for entries.
func legendBox(entries []style.RouteType) (w, h float64) {
	for _, rt := range entries {
		w = max(w, layout.EstimateLabelSize(rt.Name, legendFontSize).W)
	}
	w += legendSwatch + 2*legendPad
	h = float64(len(entries))*legendRow + 2*legendPad
	return w, h
}

// GenerateSVG renders a scene to an SVG document.
func GenerateSVG(scene Scene, opts SVGOptions) string {
	if opts.FontFamily == "" {
		opts.FontFamily = "sans-serif"
	}
	if opts.TitleSize == 0 {
		opts.TitleSize = 20
	}

	vp := scene.Viewport
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" font-family="%s">
`, vp.Width, vp.Height, vp.Width, vp.Height, html.EscapeString(opts.FontFamily)))

	if scene.Title != "" {
		sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(scene.Title)))
	}

	if scene.Base {
		sb.WriteString(fmt.Sprintf(`<rect width="100%%" height="100%%" fill="%s"/>
`, scene.Background))
		if len(scene.Grid) > 0 {
			sb.WriteString(fmt.Sprintf(`<g class="grid" stroke="%s" stroke-width="1">
`, GridColor))
			for _, g := range scene.Grid {
				sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, g.From.X, g.From.Y, g.To.X, g.To.Y))
			}
			sb.WriteString("</g>\n")
		}
	}

	// Routes
	if len(scene.Routes) > 0 {
		sb.WriteString(`<g class="routes" fill="none" stroke-linecap="round" stroke-linejoin="round">` + "\n")
		for _, r := range scene.Routes {
			pts := make([]string, len(r.Points))
			for i, ll := range r.Points {
				p := vp.Project(ll)
				pts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
			}
			dash := ""
			if r.Dashed() {
				dash = fmt.Sprintf(` stroke-dasharray="%s"`, style.DashPattern)
			}
			sb.WriteString(fmt.Sprintf(`<polyline points="%s" stroke="%s" stroke-width="%.1f"%s/>
`, strings.Join(pts, " "), r.Style.Color, r.Style.Width(), dash))
		}
		sb.WriteString("</g>\n")
	}

	// Arrows
	if len(scene.Arrows) > 0 {
		sb.WriteString(`<g class="arrows">` + "\n")
		for _, a := range scene.Arrows {
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="%s" stroke="#ffffff" stroke-width="1"/>
`, arrowPathData(vp.Project(a.At), a), a.Color))
		}
		sb.WriteString("</g>\n")
	}

	// Nodes
	if len(scene.Nodes) > 0 {
		sb.WriteString(`<g class="nodes" stroke="#ffffff">` + "\n")
		for _, n := range scene.Nodes {
			p := vp.Project(n.Location.LatLng())
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke-width="%.1f"/>
`, p.X, p.Y, n.Radius, n.Color, n.BorderWidth))
		}
		sb.WriteString("</g>\n")
	}

	// Leader lines
	if len(scene.Leaders) > 0 {
		sb.WriteString(fmt.Sprintf(`<g class="leaders" stroke="%s" stroke-width="1" stroke-opacity="0.6" stroke-dasharray="4, 4">
`, LeaderGrey))
		for _, l := range scene.Leaders {
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, l.From.X, l.From.Y, l.To.X, l.To.Y))
		}
		sb.WriteString("</g>\n")
	}

	// Labels
	if len(scene.Labels) > 0 {
		sb.WriteString(`<g class="labels" text-anchor="middle" dominant-baseline="central">` + "\n")
		for _, l := range scene.Labels {
			c := l.Rect.Center()
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s" stroke="#00000022"/>
`, l.Rect.Left, l.Rect.Top, l.Rect.Width(), l.Rect.Height(), l.Bg))
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%.0f" font-weight="600" fill="%s">%s</text>
`, c.X, c.Y, l.FontSize, l.Fg, html.EscapeString(l.Name)))
		}
		sb.WriteString("</g>\n")
	}

	if opts.ShowLegend && len(scene.Legend) > 0 {
		writeSVGLegend(&sb, scene)
	}

	if opts.ShowTitle && scene.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle" font-size="%.0f" font-weight="bold" fill="#1a1d23">%s</text>
`, vp.Width/2, opts.TitleSize+10, opts.TitleSize, html.EscapeString(scene.Title)))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func writeSVGLegend(sb *strings.Builder, scene Scene) {
	ls := scene.LegendStyle
	scale := ls.Scale
	if scale <= 0 {
		scale = 1
	}
	w, h := legendBox(scene.Legend)
	x := ls.Position.X
	y := scene.Viewport.Height - ls.Position.Y - h*scale

	sb.WriteString(fmt.Sprintf(`<g class="legend" transform="translate(%.1f,%.1f) scale(%.2f)">
`, x, y, scale))
	sb.WriteString(fmt.Sprintf(`<rect width="%.1f" height="%.1f" rx="6" fill="#ffffff" fill-opacity="0.92" stroke="#00000022"/>
`, w, h))
	for i, rt := range scene.Legend {
		cy := legendPad + float64(i)*legendRow + legendRow/2
		dash := ""
		if rt.LineStyle == style.Dashed {
			dash = ` stroke-dasharray="6, 4"`
		}
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="4"%s/>
`, legendPad, cy, legendPad+legendSwatch-6, cy, rt.Color, dash))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%.0f" dominant-baseline="central" fill="#1a1d23">%s</text>
`, legendPad+legendSwatch, cy, legendFontSize, html.EscapeString(rt.Name)))
	}
	sb.WriteString("</g>\n")
}

func arrowPathData(at geo.Point, a geo.Arrow) string {
	var sb strings.Builder
	for i, p := range a.Glyph() {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		sb.WriteString(fmt.Sprintf("%s%.1f %.1f ", cmd, at.X+p.X, at.Y+p.Y))
	}
	sb.WriteString("Z")
	return sb.String()
}

// WriteSVG writes the scene as an SVG document to w.
func WriteSVG(w io.Writer, scene Scene, opts SVGOptions) error {
	_, err := io.WriteString(w, GenerateSVG(scene, opts))
	return err
}

// SVGRasterizer produces SVG documents through the Rasterizer interface, so
// SVG output can go through RenderState.Export.
type SVGRasterizer struct {
	Options SVGOptions
}

// Rasterize renders scene as an SVG document.
func (r SVGRasterizer) Rasterize(ctx context.Context, scene Scene) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(GenerateSVG(scene, r.Options)), nil
}
