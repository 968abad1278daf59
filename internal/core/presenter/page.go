package presenter

import (
	"fmt"
	"sort"

	"github.com/ewilliams-labs/decades/internal/core/aggregate"
	"github.com/ewilliams-labs/decades/internal/core/domain"
	"github.com/ewilliams-labs/decades/internal/core/rank"
)

// View ids that are not decades.
const (
	WelcomeID     = "welcome"
	OverviewID    = "overview"
	DefinitionsID = "definitions"
)

// Chart ids shared by the page builders and the narrative documents.
const (
	ChartFeatureMeans    = "feature-means"
	ChartExplicit        = "explicit"
	ChartKeyMode         = "key-mode"
	ChartTopArtists      = "top-artists"
	ChartArtistFeatures  = "artist-features"
	ChartTracksPerDecade = "tracks-per-decade"
	ChartExplicitDecade  = "explicit-by-decade"
	ChartKeyModeDecade   = "key-mode-by-decade"

	// Section ids without a chart of their own.
	SectionDecadeMeans   = "decade-means"
	SectionDistributions = "distributions"
)

// Section is a block of prose followed by zero or more charts.
type Section struct {
	ID      string  `json:"id"`
	Heading string  `json:"heading,omitempty"`
	Text    string  `json:"text,omitempty"`
	Charts  []Chart `json:"charts,omitempty"`
}

// Page is one named view of the dashboard.
type Page struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Intro    string              `json:"intro,omitempty"`
	Sections []Section           `json:"sections"`
	Artists  []string            `json:"artists,omitempty"`
	Selected string              `json:"selected,omitempty"`
	Glossary []domain.Definition `json:"glossary,omitempty"`
}

// Charts flattens the charts of every section, in page order.
func (p Page) Charts() []Chart {
	var out []Chart
	for _, s := range p.Sections {
		out = append(out, s.Charts...)
	}
	return out
}

// Chart finds a chart by id.
func (p Page) Chart(id string) (Chart, bool) {
	for _, s := range p.Sections {
		for _, c := range s.Charts {
			if c.ID == id {
				return c, true
			}
		}
	}
	return Chart{}, false
}

// DistributionInput is the raw column and its summary for one feature.
type DistributionInput struct {
	Values  []float64
	Summary aggregate.Summary
}

// DecadeInput is everything a decade view shows, already aggregated.
type DecadeInput struct {
	Decade        domain.Decade
	Means         []aggregate.FeatureMean
	Explicit      []aggregate.Count
	KeyModes      []aggregate.Count
	Ranked        []rank.Ranked
	Selected      string
	SelectedMeans []aggregate.FeatureMean
	Distributions []DistributionInput
}

// DecadePage lays out a decade view.
func DecadePage(th Theme, n domain.Narrative, in DecadeInput) Page {
	title := n.Title
	if title == "" {
		title = fmt.Sprintf("Review of %s songs", in.Decade)
	}

	sections := []Section{
		section(n, ChartFeatureMeans, "",
			FeatureMeansChart(th, ChartFeatureMeans, "Mean values per musical feature", in.Means)),
		section(n, ChartExplicit, "",
			CountsChart(th, ChartExplicit, "Count of explicit tracks", in.Explicit, true)),
		section(n, ChartKeyMode, "",
			CountsChart(th, ChartKeyMode, "Count of tracks per key", in.KeyModes, false)),
		section(n, ChartTopArtists, "", TopArtistsChart(th, ChartTopArtists, in.Ranked)),
	}

	if in.Selected != "" {
		sections = append(sections, section(n, ChartArtistFeatures, "",
			FeatureMeansChart(th, ChartArtistFeatures, "Features for artist "+in.Selected, in.SelectedMeans)))
	}

	sections = append(sections, distributions(th, n, in.Distributions))

	return Page{
		ID:       in.Decade.String(),
		Title:    title,
		Intro:    n.Intro,
		Sections: sections,
		Artists:  rank.Artists(in.Ranked),
		Selected: in.Selected,
	}
}

// OverviewInput is everything the whole-dataset view shows.
type OverviewInput struct {
	Decades       []domain.Decade
	PerDecade     []aggregate.Count
	DecadeMeans   []aggregate.DecadeMeans
	Features      []domain.Feature
	Explicit      aggregate.Pivot
	KeyModes      aggregate.Pivot
	Distributions []DistributionInput
}

// Overview lays out the whole-dataset view.
func Overview(th Theme, n domain.Narrative, in OverviewInput) Page {
	title := n.Title
	if title == "" {
		title = "Overall Information"
	}

	perDecade := CountsChart(th, ChartTracksPerDecade, "Total songs per decade", in.PerDecade, true)
	perDecade.YLabel = "Decades"
	peak := 0.0
	for _, p := range perDecade.Points() {
		if p.Value > peak {
			peak = p.Value
		}
	}
	for i := range perDecade.Series[0].Points {
		pt := &perDecade.Series[0].Points[i]
		if peak > 0 {
			pt.Color = th.Ramp(pt.Value / peak)
		}
	}

	means := Section{
		ID:      SectionDecadeMeans,
		Heading: "Average Musical Values per Decade",
		Text:    n.Note(SectionDecadeMeans),
		Charts:  DecadeMeansCharts(th, in.DecadeMeans, in.Features),
	}

	sections := []Section{
		section(n, ChartTracksPerDecade, "", perDecade),
		means,
		section(n, ChartExplicitDecade, "",
			GroupedBarChart(th, ChartExplicitDecade, "Count of explicit tracks per decade", "Decade", "Explicit", in.Explicit)),
		section(n, ChartKeyModeDecade, "",
			HeatmapChart(th, ChartKeyModeDecade, "Count of songs per key per decade", "Key", "Decade", in.KeyModes)),
		distributions(th, n, in.Distributions),
	}

	return Page{
		ID:       OverviewID,
		Title:    title,
		Intro:    n.Intro,
		Sections: sections,
	}
}

// Welcome is the landing view: prose only, no charts.
func Welcome(n domain.Narrative) Page {
	title := n.Title
	if title == "" {
		title = "Welcome"
	}
	return Page{ID: WelcomeID, Title: title, Intro: n.Intro, Sections: []Section{}}
}

// Definitions lays out the glossary view. Terms are listed alphabetically.
func Definitions(n domain.Narrative, glossary []domain.Definition) Page {
	title := n.Title
	if title == "" {
		title = "Audio Features"
	}
	terms := append([]domain.Definition(nil), glossary...)
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Term < terms[j].Term })

	sections := make([]Section, len(terms))
	for i, d := range terms {
		sections[i] = Section{ID: d.Term, Heading: d.Term, Text: d.Text}
	}
	return Page{
		ID:       DefinitionsID,
		Title:    title,
		Intro:    n.Intro,
		Sections: sections,
		Glossary: terms,
	}
}

func section(n domain.Narrative, id, heading string, charts ...Chart) Section {
	return Section{ID: id, Heading: heading, Text: n.Note(id), Charts: charts}
}

// distributions emits one histogram+boxplot per feature, ordered by feature
// name.
func distributions(th Theme, n domain.Narrative, in []DistributionInput) Section {
	sorted := append([]DistributionInput(nil), in...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Summary.Feature < sorted[j].Summary.Feature
	})
	charts := make([]Chart, len(sorted))
	for i, d := range sorted {
		charts[i] = DistributionChart(th, d.Values, d.Summary)
	}
	return Section{ID: SectionDistributions, Text: n.Note(SectionDistributions), Charts: charts}
}
