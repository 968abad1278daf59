package presenter

import (
	"fmt"
	"sort"

	"github.com/ewilliams-labs/decades/internal/core/aggregate"
	"github.com/ewilliams-labs/decades/internal/core/derive"
	"github.com/ewilliams-labs/decades/internal/core/domain"
	"github.com/ewilliams-labs/decades/internal/core/rank"
)

// Kind selects how a chart is drawn.
type Kind string

const (
	KindBar          Kind = "bar"
	KindGroupedBar   Kind = "grouped_bar"
	KindHistogramBox Kind = "histogram_box"
	KindHeatmap      Kind = "heatmap"
)

// Point is one bar.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Series is a named run of bars. Plain bar charts have exactly one.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points"`
}

// Heatmap is a dense count grid; Counts[i][j] belongs to Rows[i], Columns[j].
type Heatmap struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Counts  [][]int  `json:"counts"`
	Max     int      `json:"max"`
	Scale   []string `json:"scale"`
}

// Marker is a labelled horizontal line drawn over the boxplot.
type Marker struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Distribution is the histogram+boxplot pair of one feature.
type Distribution struct {
	Feature        domain.Feature    `json:"feature"`
	Bins           []aggregate.Bin   `json:"bins"`
	Summary        aggregate.Summary `json:"summary"`
	Markers        []Marker          `json:"markers"`
	HistogramColor string            `json:"histogram_color"`
	BoxColor       string            `json:"box_color"`

	// Values feeds renderers that bin on their own; it is not serialised.
	Values []float64 `json:"-"`
}

// Chart is a renderer-neutral chart specification.
type Chart struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	XLabel     string `json:"x_label,omitempty"`
	YLabel     string `json:"y_label,omitempty"`
	Horizontal bool   `json:"horizontal,omitempty"`
	// Legend titles the series legend of grouped charts.
	Legend string `json:"legend,omitempty"`

	Series       []Series      `json:"series,omitempty"`
	Heatmap      *Heatmap      `json:"heatmap,omitempty"`
	Distribution *Distribution `json:"distribution,omitempty"`
}

// Points returns the bars of a single-series chart.
func (c Chart) Points() []Point {
	if len(c.Series) == 0 {
		return nil
	}
	return c.Series[0].Points
}

// FeatureMeansChart draws display-scaled feature means as horizontal bars,
// ordered by label.
func FeatureMeansChart(th Theme, id, title string, means []aggregate.FeatureMean) Chart {
	points := make([]Point, 0, len(means))
	for _, m := range means {
		points = append(points, Point{
			Label: derive.DisplayLabel(m.Feature),
			Value: th.Round(derive.DisplayValue(m.Feature, m.Mean)),
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Label < points[j].Label })
	for i := range points {
		points[i].Color = th.Color(i)
	}
	return Chart{
		ID:         id,
		Kind:       KindBar,
		Title:      title,
		XLabel:     "Value",
		YLabel:     "Feature",
		Horizontal: true,
		Series:     []Series{{Name: "mean", Points: points}},
	}
}

// CountsChart draws a value-count table in the order given.
func CountsChart(th Theme, id, title string, counts []aggregate.Count, horizontal bool) Chart {
	points := make([]Point, len(counts))
	for i, c := range counts {
		points[i] = Point{Label: c.Label, Value: float64(c.Count), Color: th.Color(i)}
	}
	return Chart{
		ID:         id,
		Kind:       KindBar,
		Title:      title,
		XLabel:     "Count",
		Horizontal: horizontal,
		Series:     []Series{{Name: "count", Points: points}},
	}
}

// TopArtistsChart draws ranked artists, best first, coloured by score.
func TopArtistsChart(th Theme, id string, ranked []rank.Ranked) Chart {
	points := make([]Point, len(ranked))
	for i, r := range ranked {
		points[i] = Point{Label: r.Artist, Value: th.Round(r.Score), Color: th.Ramp(r.Score)}
	}
	return Chart{
		ID:         id,
		Kind:       KindBar,
		Title:      fmt.Sprintf("Top %d artists by popularity", len(ranked)),
		XLabel:     "Popularity",
		YLabel:     "Artist",
		Horizontal: true,
		Series:     []Series{{Name: "popularity", Points: points}},
	}
}

// DistributionChart bins values into the theme's histogram and pairs it with
// the summary's boxplot and mean and median markers.
func DistributionChart(th Theme, values []float64, s aggregate.Summary) Chart {
	f := string(s.Feature)
	return Chart{
		ID:     "distribution-" + f,
		Kind:   KindHistogramBox,
		Title:  "Distribution Plot " + f,
		XLabel: f,
		YLabel: "Count",
		Distribution: &Distribution{
			Feature: s.Feature,
			Bins:    aggregate.Histogram(values, th.Bins()),
			Summary: s,
			Markers: []Marker{
				{Label: fmt.Sprintf("Mean = %.*f", th.Precision, s.Mean), Value: s.Mean, Color: th.MeanLine},
				{Label: fmt.Sprintf("Median = %.*f", th.Precision, s.Median), Value: s.Median, Color: th.MedianLine},
			},
			HistogramColor: th.Histogram,
			BoxColor:       th.Box,
			Values:         values,
		},
	}
}

// GroupedBarChart draws one series per pivot column, grouped by pivot row.
func GroupedBarChart(th Theme, id, title, xLabel, legend string, p aggregate.Pivot) Chart {
	series := make([]Series, len(p.Columns))
	for j, col := range p.Columns {
		points := make([]Point, len(p.Rows))
		for i, row := range p.Rows {
			points[i] = Point{Label: row, Value: float64(p.Counts[i][j])}
		}
		series[j] = Series{Name: col, Color: th.Color(j), Points: points}
	}
	return Chart{
		ID:     id,
		Kind:   KindGroupedBar,
		Title:  title,
		XLabel: xLabel,
		YLabel: "Count",
		Legend: legend,
		Series: series,
	}
}

// HeatmapChart draws p transposed: pivot columns become heatmap rows.
func HeatmapChart(th Theme, id, title, xLabel, yLabel string, p aggregate.Pivot) Chart {
	counts := make([][]int, len(p.Columns))
	peak := 0
	for j := range p.Columns {
		counts[j] = make([]int, len(p.Rows))
		for i := range p.Rows {
			n := p.Counts[i][j]
			counts[j][i] = n
			if n > peak {
				peak = n
			}
		}
	}
	return Chart{
		ID:     id,
		Kind:   KindHeatmap,
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		Heatmap: &Heatmap{
			Rows:    append([]string(nil), p.Columns...),
			Columns: append([]string(nil), p.Rows...),
			Counts:  counts,
			Max:     peak,
			Scale:   append([]string(nil), th.Sequential...),
		},
	}
}

// DecadeMeansCharts draws one small bar chart per feature, each comparing
// the raw decade means.
func DecadeMeansCharts(th Theme, means []aggregate.DecadeMeans, features []domain.Feature) []Chart {
	charts := make([]Chart, 0, len(features))
	for fi, f := range features {
		points := make([]Point, 0, len(means))
		for _, dm := range means {
			for _, m := range dm.Means {
				if m.Feature == f {
					points = append(points, Point{Label: dm.Decade.String(), Value: th.Round(m.Mean)})
					break
				}
			}
		}
		charts = append(charts, Chart{
			ID:         "decade-means-" + string(f),
			Kind:       KindBar,
			Title:      string(f),
			YLabel:     "Decade",
			Horizontal: true,
			Series:     []Series{{Name: string(f), Color: th.Color(fi), Points: points}},
		})
	}
	return charts
}
