package presenter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/decades/internal/core/aggregate"
	"github.com/ewilliams-labs/decades/internal/core/domain"
	"github.com/ewilliams-labs/decades/internal/core/rank"
)

func TestTheme_Round(t *testing.T) {
	th := DefaultTheme()
	assert.Equal(t, 0.65, th.Round(0.6543))
	th.Precision = 0
	assert.Equal(t, 1.0, th.Round(0.6543))
}

func TestTheme_RampClamps(t *testing.T) {
	th := DefaultTheme()
	assert.Equal(t, th.Sequential[0], th.Ramp(-3))
	assert.Equal(t, th.Sequential[len(th.Sequential)-1], th.Ramp(7))
}

func TestThemeByName(t *testing.T) {
	th, ok := ThemeByName("")
	require.True(t, ok)
	assert.True(t, th.Dark)

	th, ok = ThemeByName("light")
	require.True(t, ok)
	assert.False(t, th.Dark)
	assert.Equal(t, DefaultTheme().Sequential, th.Sequential)

	_, ok = ThemeByName("neon")
	assert.False(t, ok)
}

func TestFeatureMeansChart_DisplayScalingAndOrder(t *testing.T) {
	means := []aggregate.FeatureMean{
		{Feature: domain.Tempo, Mean: 120},
		{Feature: domain.Loudness, Mean: -8},
		{Feature: domain.Acousticness, Mean: 0.6543},
	}
	c := FeatureMeansChart(DefaultTheme(), "m", "means", means)

	require.Equal(t, KindBar, c.Kind)
	pts := c.Points()
	require.Len(t, pts, 3)
	assert.Equal(t, "Acousticness", pts[0].Label)
	assert.Equal(t, 0.65, pts[0].Value)
	assert.Equal(t, "Loudness x 10", pts[1].Label)
	assert.Equal(t, 0.8, pts[1].Value)
	assert.Equal(t, "Tempo x 100", pts[2].Label)
	assert.Equal(t, 1.2, pts[2].Value)
}

func TestHeatmapChart_Transposes(t *testing.T) {
	p := aggregate.Pivot{
		Rows:    []string{"C-major", "D-minor"},
		Columns: []string{"1950s", "1960s", "1970s"},
		Counts:  [][]int{{1, 0, 4}, {2, 3, 0}},
	}
	c := HeatmapChart(DefaultTheme(), "h", "heat", "Key", "Decade", p)

	require.NotNil(t, c.Heatmap)
	assert.Equal(t, []string{"1950s", "1960s", "1970s"}, c.Heatmap.Rows)
	assert.Equal(t, []string{"C-major", "D-minor"}, c.Heatmap.Columns)
	assert.Equal(t, [][]int{{1, 2}, {0, 3}, {4, 0}}, c.Heatmap.Counts)
	assert.Equal(t, 4, c.Heatmap.Max)
}

func TestGroupedBarChart(t *testing.T) {
	p := aggregate.Pivot{
		Rows:    []string{"1950s", "1960s"},
		Columns: []string{domain.LabelExplicit, domain.LabelNotExplicit},
		Counts:  [][]int{{1, 9}, {0, 12}},
	}
	c := GroupedBarChart(DefaultTheme(), "g", "explicit", "Decade", "Explicit", p)
	require.Len(t, c.Series, 2)
	assert.Equal(t, domain.LabelNotExplicit, c.Series[1].Name)
	assert.Equal(t, 12.0, c.Series[1].Points[1].Value)
}

func TestDistributionChart_ValuesNotSerialised(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.9}
	c := DistributionChart(DefaultTheme(), values, aggregate.Summary{Feature: domain.Energy, Mean: 0.375, Median: 0.25})

	require.NotNil(t, c.Distribution)
	assert.Equal(t, "distribution-energy", c.ID)
	assert.Len(t, c.Distribution.Bins, 50)
	assert.Equal(t, "Mean = 0.38", c.Distribution.Markers[0].Label)
	assert.Equal(t, "Median = 0.25", c.Distribution.Markers[1].Label)

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "\"values\"")
}

func decadeInput() DecadeInput {
	ranked := []rank.Ranked{
		{Artist: "Ray Charles", Score: 1, Count: 40},
		{Artist: "Elvis Presley", Score: 0.6, Count: 31},
	}
	return DecadeInput{
		Decade:   "1950s",
		Means:    []aggregate.FeatureMean{{Feature: domain.Energy, Mean: 0.4}},
		Explicit: []aggregate.Count{{Label: domain.LabelNotExplicit, Count: 70}},
		KeyModes: []aggregate.Count{{Label: "C-major", Count: 20}, {Label: "F-major", Count: 11}},
		Ranked:   ranked,
		Selected: "Elvis Presley",
		SelectedMeans: []aggregate.FeatureMean{
			{Feature: domain.Energy, Mean: 0.7},
		},
		Distributions: []DistributionInput{
			{Values: []float64{1, 2}, Summary: aggregate.Summary{Feature: domain.Valence}},
			{Values: []float64{1, 2}, Summary: aggregate.Summary{Feature: domain.Acousticness}},
		},
	}
}

func TestDecadePage(t *testing.T) {
	n := domain.Narrative{Intro: "hello", Notes: map[string]string{ChartTopArtists: "top fifty"}}
	p := DecadePage(DefaultTheme(), n, decadeInput())

	assert.Equal(t, "1950s", p.ID)
	assert.Equal(t, "Review of 1950s songs", p.Title)
	assert.Equal(t, "hello", p.Intro)
	assert.Equal(t, []string{"Elvis Presley", "Ray Charles"}, p.Artists)
	assert.Equal(t, "Elvis Presley", p.Selected)

	top, ok := p.Chart(ChartTopArtists)
	require.True(t, ok)
	assert.Equal(t, "Ray Charles", top.Points()[0].Label)

	artist, ok := p.Chart(ChartArtistFeatures)
	require.True(t, ok)
	assert.Equal(t, "Features for artist Elvis Presley", artist.Title)

	var ids []string
	for _, c := range p.Charts() {
		if c.Kind == KindHistogramBox {
			ids = append(ids, c.ID)
		}
	}
	assert.Equal(t, []string{"distribution-acousticness", "distribution-valence"}, ids)

	for _, s := range p.Sections {
		if s.ID == ChartTopArtists {
			assert.Equal(t, "top fifty", s.Text)
		}
	}
}

func TestDecadePage_NoRankedArtists(t *testing.T) {
	in := decadeInput()
	in.Ranked = []rank.Ranked{}
	in.Selected = ""
	in.SelectedMeans = nil

	p := DecadePage(DefaultTheme(), domain.Narrative{}, in)
	assert.Empty(t, p.Artists)
	_, ok := p.Chart(ChartArtistFeatures)
	assert.False(t, ok)

	top, ok := p.Chart(ChartTopArtists)
	require.True(t, ok)
	assert.Empty(t, top.Points())
}

func TestOverview(t *testing.T) {
	in := OverviewInput{
		Decades:   []domain.Decade{"1950s", "1960s"},
		PerDecade: []aggregate.Count{{Label: "1960s", Count: 20}, {Label: "1950s", Count: 10}},
		DecadeMeans: []aggregate.DecadeMeans{
			{Decade: "1950s", Means: []aggregate.FeatureMean{{Feature: domain.Popularity, Mean: 30}}},
			{Decade: "1960s", Means: []aggregate.FeatureMean{{Feature: domain.Popularity, Mean: 40}}},
		},
		Features: []domain.Feature{domain.Popularity},
		Explicit: aggregate.Pivot{Rows: []string{"1950s"}, Columns: []string{"Explicit"}, Counts: [][]int{{1}}},
		KeyModes: aggregate.Pivot{Rows: []string{"C-major"}, Columns: []string{"1950s"}, Counts: [][]int{{3}}},
	}
	p := Overview(DefaultTheme(), domain.Narrative{}, in)

	assert.Equal(t, OverviewID, p.ID)
	assert.Equal(t, "Overall Information", p.Title)

	per, ok := p.Chart(ChartTracksPerDecade)
	require.True(t, ok)
	assert.Equal(t, DefaultTheme().Ramp(1), per.Points()[0].Color)

	pop, ok := p.Chart("decade-means-popularity")
	require.True(t, ok)
	require.Len(t, pop.Points(), 2)
	assert.Equal(t, "1960s", pop.Points()[1].Label)
	assert.Equal(t, 40.0, pop.Points()[1].Value)

	_, ok = p.Chart(ChartKeyModeDecade)
	assert.True(t, ok)
}

func TestWelcome(t *testing.T) {
	p := Welcome(domain.Narrative{Intro: "hello"})
	assert.Equal(t, WelcomeID, p.ID)
	assert.Equal(t, "Welcome", p.Title)
	assert.Equal(t, "hello", p.Intro)
	assert.Empty(t, p.Charts())

	assert.Equal(t, "Start here", Welcome(domain.Narrative{Title: "Start here"}).Title)
}

func TestDefinitions_SortedGlossary(t *testing.T) {
	p := Definitions(domain.Narrative{}, []domain.Definition{
		{Term: "Valence", Text: "v"},
		{Term: "Acousticness", Text: "a"},
	})
	require.Len(t, p.Sections, 2)
	assert.Equal(t, "Acousticness", p.Sections[0].Heading)
	assert.Equal(t, DefinitionsID, p.ID)
	assert.Empty(t, p.Charts())
}
