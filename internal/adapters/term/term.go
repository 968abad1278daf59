// Package term renders dashboard pages for a terminal: narrative text goes
// through glamour, charts become lipgloss-styled text bars and grids.
package term

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ewilliams-labs/decades/internal/core/aggregate"
	"github.com/ewilliams-labs/decades/internal/core/presenter"
)

const (
	defaultWidth = 80
	labelWidth   = 24
	block        = "█"
)

// Renderer turns a Page into terminal text.
type Renderer struct {
	theme  presenter.Theme
	width  int
	md     *glamour.TermRenderer
	styles styles
}

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(th presenter.Theme) styles {
	fg := lipgloss.Color(th.Foreground)
	accent := lipgloss.Color(th.Color(0))
	return styles{
		title: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			MarginBottom(1),
		heading: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true).
			Underline(true),
		label: lipgloss.NewStyle().
			Foreground(fg).
			Width(labelWidth).
			Align(lipgloss.Right).
			PaddingRight(1),
		value: lipgloss.NewStyle().
			Foreground(fg).
			PaddingLeft(1),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true),
	}
}

// New returns a Renderer wrapping text at width columns. A width below 40
// falls back to 80.
func New(th presenter.Theme, width int) (*Renderer, error) {
	if width < 40 {
		width = defaultWidth
	}
	style := "light"
	if th.Dark {
		style = "dark"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("term: markdown renderer: %w", err)
	}
	return &Renderer{theme: th, width: width, md: md, styles: newStyles(th)}, nil
}

// Width reports the wrap width.
func (r *Renderer) Width() int { return r.width }

// Render draws the whole page.
func (r *Renderer) Render(p presenter.Page) (string, error) {
	var b strings.Builder
	b.WriteString(r.styles.title.Render(p.Title))
	b.WriteString("\n")

	if p.Intro != "" {
		out, err := r.md.Render(p.Intro)
		if err != nil {
			return "", fmt.Errorf("term: intro: %w", err)
		}
		b.WriteString(out)
	}
	if p.Selected != "" {
		b.WriteString(r.styles.muted.Render("artist: " + p.Selected))
		b.WriteString("\n\n")
	}

	for _, s := range p.Sections {
		if s.Heading != "" {
			b.WriteString(r.styles.heading.Render(s.Heading))
			b.WriteString("\n")
		}
		if s.Text != "" {
			out, err := r.md.Render(s.Text)
			if err != nil {
				return "", fmt.Errorf("term: section %s: %w", s.ID, err)
			}
			b.WriteString(out)
		}
		for _, c := range s.Charts {
			b.WriteString(r.Chart(c))
			b.WriteString("\n")
		}
	}

	if len(p.Glossary) > 0 {
		out, err := r.md.Render(Glossary(p))
		if err != nil {
			return "", fmt.Errorf("term: glossary: %w", err)
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// Glossary formats the page glossary as a markdown definition list.
func Glossary(p presenter.Page) string {
	var b strings.Builder
	for _, d := range p.Glossary {
		fmt.Fprintf(&b, "**%s**\n\n%s\n\n", d.Term, d.Text)
	}
	return b.String()
}

// Chart draws one chart as text.
func (r *Renderer) Chart(c presenter.Chart) string {
	var body string
	switch {
	case c.Heatmap != nil:
		body = r.heatmap(c.Heatmap)
	case c.Distribution != nil:
		body = r.distribution(c.Distribution)
	case c.Kind == presenter.KindGroupedBar:
		body = r.grouped(c.Series)
	default:
		body = r.bars(c.Points(), seriesColor(c))
	}
	return r.styles.heading.Render(c.Title) + "\n" + body
}

func seriesColor(c presenter.Chart) string {
	if len(c.Series) == 0 {
		return ""
	}
	return c.Series[0].Color
}

func (r *Renderer) barWidth() int {
	w := r.width - labelWidth - 12
	if w < 10 {
		w = 10
	}
	return w
}

func (r *Renderer) bars(points []presenter.Point, fallback string) string {
	if len(points) == 0 {
		return r.styles.muted.Render("no data") + "\n"
	}
	peak := 0.0
	for _, p := range points {
		peak = math.Max(peak, math.Abs(p.Value))
	}
	var b strings.Builder
	for _, p := range points {
		col := p.Color
		if col == "" {
			col = fallback
		}
		b.WriteString(r.row(p.Label, p.Value, peak, col))
	}
	return b.String()
}

func (r *Renderer) grouped(series []presenter.Series) string {
	if len(series) == 0 || len(series[0].Points) == 0 {
		return r.styles.muted.Render("no data") + "\n"
	}
	peak := 0.0
	for _, s := range series {
		for _, p := range s.Points {
			peak = math.Max(peak, p.Value)
		}
	}
	var b strings.Builder
	for i, p := range series[0].Points {
		b.WriteString(r.styles.label.Bold(true).Render(p.Label))
		b.WriteString("\n")
		for _, s := range series {
			if i < len(s.Points) {
				b.WriteString(r.row(s.Name, s.Points[i].Value, peak, s.Color))
			}
		}
	}
	return b.String()
}

func (r *Renderer) row(label string, v, peak float64, col string) string {
	n := 0
	if peak > 0 {
		n = int(math.Round(math.Abs(v) / peak * float64(r.barWidth())))
	}
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(col)).Render(strings.Repeat(block, n))
	value := r.styles.value.Render(formatValue(v, r.theme.Precision))
	return lipgloss.JoinHorizontal(lipgloss.Top, r.styles.label.Render(truncate(label, labelWidth-1)), bar, value) + "\n"
}

// heatmap prints the count grid with each cell shaded on the theme ramp.
func (r *Renderer) heatmap(hm *presenter.Heatmap) string {
	cell := 7
	for _, c := range hm.Columns {
		cell = max(cell, len(c)+1)
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth))
	for _, c := range hm.Columns {
		b.WriteString(fmt.Sprintf("%*s", cell, c))
	}
	b.WriteString("\n")
	for i, row := range hm.Rows {
		b.WriteString(r.styles.label.Render(truncate(row, labelWidth-1)))
		for j := range hm.Columns {
			n := hm.Counts[i][j]
			shade := 0.0
			if hm.Max > 0 {
				shade = float64(n) / float64(hm.Max)
			}
			st := lipgloss.NewStyle().Foreground(lipgloss.Color(r.theme.Ramp(shade)))
			b.WriteString(st.Render(fmt.Sprintf("%*d", cell, n)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) distribution(d *presenter.Distribution) string {
	s := d.Summary
	var b strings.Builder
	b.WriteString(r.styles.muted.Render(fmt.Sprintf(
		"n=%d  min=%s  q1=%s  q3=%s  max=%s",
		s.Count,
		formatValue(s.Min, r.theme.Precision),
		formatValue(s.Q1, r.theme.Precision),
		formatValue(s.Q3, r.theme.Precision),
		formatValue(s.Max, r.theme.Precision),
	)))
	b.WriteString("\n")
	for _, m := range d.Markers {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.Color)).Render(m.Label))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(d.HistogramColor)).Render(Sparkline(d.Bins)))
	b.WriteString("\n")
	return b.String()
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws bin counts as one line of block characters.
func Sparkline(bins []aggregate.Bin) string {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}
	out := make([]rune, len(bins))
	for i, b := range bins {
		idx := 0
		if peak > 0 {
			idx = int(math.Round(float64(b.Count) / float64(peak) * float64(len(sparks)-1)))
		}
		out[i] = sparks[idx]
	}
	return string(out)
}

func formatValue(v float64, precision int) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	if precision < 0 {
		precision = 2
	}
	return fmt.Sprintf("%.*f", precision, v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
