// Package render draws presenter charts as PNG images with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ewilliams-labs/decades/internal/core/presenter"
)

// ErrEmptyChart is returned for charts with nothing to draw.
var ErrEmptyChart = errors.New("render: chart has no data")

// Renderer implements ports.ChartRenderer.
type Renderer struct {
	theme  presenter.Theme
	width  vg.Length
	height vg.Length
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize overrides the default 8x5 inch canvas.
func WithSize(w, h vg.Length) Option {
	return func(r *Renderer) {
		r.width, r.height = w, h
	}
}

// New returns a Renderer drawing with th.
func New(th presenter.Theme, opts ...Option) *Renderer {
	r := &Renderer{theme: th, width: 8 * vg.Inch, height: 5 * vg.Inch}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RenderPNG draws c and writes it to w as PNG.
func (r *Renderer) RenderPNG(w io.Writer, c presenter.Chart) error {
	img := vgimg.New(r.width, r.height)
	dc := draw.New(img)

	var err error
	switch c.Kind {
	case presenter.KindBar:
		err = r.drawSingle(dc, c, r.bar)
	case presenter.KindGroupedBar:
		err = r.drawSingle(dc, c, r.groupedBar)
	case presenter.KindHeatmap:
		err = r.drawSingle(dc, c, r.heatmap)
	case presenter.KindHistogramBox:
		err = r.distribution(dc, c)
	default:
		err = fmt.Errorf("render: unsupported chart kind %q", c.Kind)
	}
	if err != nil {
		return err
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("render: write png: %w", err)
	}
	return nil
}

func (r *Renderer) drawSingle(dc draw.Canvas, c presenter.Chart, fill func(*plot.Plot, presenter.Chart) error) error {
	p := r.newPlot(c.Title, c.XLabel, c.YLabel)
	if err := fill(p, c); err != nil {
		return err
	}
	p.Draw(dc)
	return nil
}

func (r *Renderer) newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	fg := hexColor(r.theme.Foreground)
	p.BackgroundColor = hexColor(r.theme.Background)
	p.Title.Text = title
	p.Title.TextStyle.Color = fg
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = fg
		ax.Label.TextStyle.Color = fg
		ax.Tick.LineStyle.Color = fg
		ax.Tick.Label.Color = fg
	}
	p.Legend.TextStyle.Color = fg
	return p
}

// bar draws one BarChart per point so every bar keeps its own colour.
func (r *Renderer) bar(p *plot.Plot, c presenter.Chart) error {
	points := c.Points()
	if len(points) == 0 {
		return ErrEmptyChart
	}
	labels := make([]string, len(points))
	for i, pt := range points {
		bc, err := plotter.NewBarChart(plotter.Values{pt.Value}, vg.Points(14))
		if err != nil {
			return fmt.Errorf("render: bar %q: %w", pt.Label, err)
		}
		col := pt.Color
		if col == "" {
			col = c.Series[0].Color
		}
		if col == "" {
			col = r.theme.Color(i)
		}
		bc.Color = hexColor(col)
		bc.LineStyle.Width = 0
		bc.Horizontal = c.Horizontal
		bc.XMin = float64(i)
		p.Add(bc)
		labels[i] = pt.Label
	}
	if c.Horizontal {
		p.NominalY(labels...)
		p.Y.Tick.Label.XAlign = draw.XRight
	} else {
		p.NominalX(labels...)
	}
	return nil
}

func (r *Renderer) groupedBar(p *plot.Plot, c presenter.Chart) error {
	if len(c.Series) == 0 || len(c.Series[0].Points) == 0 {
		return ErrEmptyChart
	}
	const width = 16
	n := len(c.Series)
	for j, s := range c.Series {
		values := make(plotter.Values, len(s.Points))
		for i, pt := range s.Points {
			values[i] = pt.Value
		}
		bc, err := plotter.NewBarChart(values, vg.Points(width))
		if err != nil {
			return fmt.Errorf("render: series %q: %w", s.Name, err)
		}
		bc.Color = hexColor(s.Color)
		bc.LineStyle.Width = 0
		bc.Offset = vg.Points(width * (float64(j) - float64(n-1)/2))
		p.Add(bc)
		p.Legend.Add(s.Name, bc)
	}
	labels := make([]string, len(c.Series[0].Points))
	for i, pt := range c.Series[0].Points {
		labels[i] = pt.Label
	}
	p.NominalX(labels...)
	p.Legend.Top = true
	return nil
}

func (r *Renderer) heatmap(p *plot.Plot, c presenter.Chart) error {
	hm := c.Heatmap
	if hm == nil || len(hm.Rows) == 0 || len(hm.Columns) == 0 {
		return ErrEmptyChart
	}
	scale := hm.Scale
	if len(scale) == 0 {
		scale = r.theme.Sequential
	}
	h := plotter.NewHeatMap(grid{hm}, ramp(scale))
	if h.Max <= h.Min {
		// A flat grid still needs a non-empty colour range.
		h.Max = h.Min + 1
	}
	p.Add(h)
	p.NominalX(hm.Columns...)
	p.NominalY(hm.Rows...)
	return nil
}

// distribution places the histogram and the boxplot side by side.
func (r *Renderer) distribution(dc draw.Canvas, c presenter.Chart) error {
	d := c.Distribution
	if d == nil || len(d.Bins) == 0 {
		return ErrEmptyChart
	}

	hist := r.newPlot(c.Title, c.XLabel, c.YLabel)
	bins := make([]plotter.HistogramBin, len(d.Bins))
	for i, b := range d.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     d.Bins[0].Max - d.Bins[0].Min,
		FillColor: hexColor(d.HistogramColor),
		LineStyle: plotter.DefaultLineStyle,
	}
	h.LineStyle.Width = 0
	hist.Add(h)

	box := r.newPlot("", "", c.XLabel)
	if len(d.Values) > 0 {
		bp, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(d.Values))
		if err != nil {
			return fmt.Errorf("render: boxplot %s: %w", d.Feature, err)
		}
		bp.FillColor = hexColor(d.BoxColor)
		box.Add(bp)
	}
	for _, m := range d.Markers {
		l, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: m.Value}, {X: 0.5, Y: m.Value}})
		if err != nil {
			return fmt.Errorf("render: marker %q: %w", m.Label, err)
		}
		l.LineStyle.Color = hexColor(m.Color)
		l.LineStyle.Width = vg.Points(2)
		l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		box.Add(l)
		box.Legend.Add(m.Label, l)
	}
	box.HideX()
	box.Legend.Top = true

	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Millimeter, PadY: vg.Millimeter}
	plots := [][]*plot.Plot{{hist, box}}
	canvases := plot.Align(plots, tiles, dc)
	hist.Draw(canvases[0][0])
	box.Draw(canvases[0][1])
	return nil
}

// grid adapts a presenter heatmap to plotter.GridXYZ. Row 0 is drawn at
// the bottom.
type grid struct{ hm *presenter.Heatmap }

func (g grid) Dims() (c, r int)   { return len(g.hm.Columns), len(g.hm.Rows) }
func (g grid) Z(c, r int) float64 { return float64(g.hm.Counts[r][c]) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

type ramp []string

func (p ramp) Colors() []color.Color {
	out := make([]color.Color, len(p))
	for i, h := range p {
		out[i] = hexColor(h)
	}
	return out
}

var _ palette.Palette = ramp(nil)

// hexColor parses "#RRGGBB". Anything else is drawn black.
func hexColor(s string) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
