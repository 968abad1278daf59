// Package presenter turns aggregated results into chart specifications and
// pages. It performs no I/O: every builder is a pure function of its inputs
// and an explicit Theme.
package presenter

import (
	"math"
)

// Theme carries the styling every chart builder needs. It is passed
// explicitly; there is no package-level default that builders consult.
type Theme struct {
	Name       string `json:"name" yaml:"name"`
	Dark       bool   `json:"dark" yaml:"dark"`
	Precision  int    `json:"precision" yaml:"precision"`
	Background string `json:"background" yaml:"background"`
	Foreground string `json:"foreground" yaml:"foreground"`

	// Categorical colours bars that stand for distinct labels.
	Categorical []string `json:"categorical" yaml:"categorical"`
	// Sequential is a low-to-high ramp for values and heatmap cells.
	Sequential []string `json:"sequential" yaml:"sequential"`

	Histogram  string `json:"histogram" yaml:"histogram"`
	Box        string `json:"box" yaml:"box"`
	MeanLine   string `json:"mean_line" yaml:"mean_line"`
	MedianLine string `json:"median_line" yaml:"median_line"`

	HistogramBins int `json:"histogram_bins" yaml:"histogram_bins"`
}

// DefaultTheme is the dark palette the dashboard ships with.
func DefaultTheme() Theme {
	return Theme{
		Name:       "dark",
		Dark:       true,
		Precision:  2,
		Background: "#111111",
		Foreground: "#F2F5FA",
		Categorical: []string{
			"#FBB4AE", "#B3CDE3", "#CCEBC5", "#DECBE4", "#FED9A6",
			"#FFFFCC", "#E5D8BD", "#FDDAEC", "#F2F2F2",
		},
		Sequential: []string{
			"#F3E79B", "#FAC484", "#F8A07E", "#EB7F86", "#CE6693", "#A059A0", "#5C53A5",
		},
		Histogram:     "#EBA0AC",
		Box:           "#F9E2AF",
		MeanLine:      "#A6E3A1",
		MedianLine:    "#CBA6F7",
		HistogramBins: 50,
	}
}

// LightTheme keeps the chart palettes of DefaultTheme on a white background.
func LightTheme() Theme {
	t := DefaultTheme()
	t.Name = "light"
	t.Dark = false
	t.Background = "#FFFFFF"
	t.Foreground = "#2A3F5F"
	return t
}

// ThemeByName returns the named built-in theme.
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case "", "dark":
		return DefaultTheme(), true
	case "light":
		return LightTheme(), true
	}
	return Theme{}, false
}

// Round rounds v to the theme's display precision. NaN passes through.
func (t Theme) Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || t.Precision < 0 {
		return v
	}
	p := math.Pow(10, float64(t.Precision))
	return math.Round(v*p) / p
}

// Color returns the i-th categorical colour, cycling through the palette.
func (t Theme) Color(i int) string {
	if len(t.Categorical) == 0 {
		return t.Foreground
	}
	if i < 0 {
		i = -i
	}
	return t.Categorical[i%len(t.Categorical)]
}

// Ramp maps x in [0,1] to a step of the sequential palette. Values outside
// the range are clamped.
func (t Theme) Ramp(x float64) string {
	if len(t.Sequential) == 0 {
		return t.Foreground
	}
	if math.IsNaN(x) || x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	i := int(math.Round(x * float64(len(t.Sequential)-1)))
	return t.Sequential[i]
}

// Bins returns the histogram bin count, falling back to 50.
func (t Theme) Bins() int {
	if t.HistogramBins < 1 {
		return 50
	}
	return t.HistogramBins
}
