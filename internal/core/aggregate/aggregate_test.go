package aggregate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

func track(artist string, decade domain.Decade, pop int, keyMode string, explicit bool, energy float64) domain.Track {
	return domain.Track{
		Name:          "song",
		FirstArtist:   artist,
		Decade:        decade,
		Year:          decade.Start(),
		Popularity:    pop,
		KeyMode:       keyMode,
		Explicit:      explicit,
		ExplicitLabel: domain.ExplicitLabel(explicit),
		DurationMin:   3,
		Features:      domain.AudioFeatures{Energy: energy, Loudness: -8, Tempo: 120},
	}
}

func fixture() []domain.Track {
	return []domain.Track{
		track("Ray Charles", "1950s", 40, "C-major", false, 0.2),
		track("Ray Charles", "1950s", 60, "F-major", false, 0.4),
		track("Elvis Presley", "1950s", 70, "C-major", true, 0.9),
		track("The Beatles", "1960s", 80, "G-major", false, 0.5),
		track("The Beatles", "1960s", 90, "G-major", false, 0.7),
		track("Aretha Franklin", "1960s", 75, "A-minor", false, 0.3),
		track("Nirvana", "1990s", 85, "E-minor", true, 0.95),
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(fixture(), domain.Energy)
	require.NoError(t, err)

	assert.Equal(t, 7, s.Count)
	assert.InDelta(t, (0.2+0.4+0.9+0.5+0.7+0.3+0.95)/7, s.Mean, 1e-12)
	assert.InDelta(t, 0.5, s.Median, 1e-12)
	assert.InDelta(t, 0.2, s.Min, 1e-12)
	assert.InDelta(t, 0.95, s.Max, 1e-12)
	assert.LessOrEqual(t, s.Q1, s.Median)
	assert.GreaterOrEqual(t, s.Q3, s.Median)
}

func TestSummarize_EvenCountMedianIsMidpoint(t *testing.T) {
	tracks := fixture()[:4]
	s, err := Summarize(tracks, domain.Energy)
	require.NoError(t, err)
	assert.InDelta(t, (0.4+0.5)/2, s.Median, 1e-12)
}

func TestSummarize_Empty(t *testing.T) {
	s, err := Summarize(nil, domain.Energy)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count)
}

func TestSummarize_UnknownFeature(t *testing.T) {
	_, err := Summarize(fixture(), domain.Feature("mood"))
	require.ErrorIs(t, err, domain.ErrUnknownFeature)
}

func TestByDecade_OrderIndependent(t *testing.T) {
	base := fixture()
	want, err := ByDecade(base, domain.OverviewFeatures)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.Track(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := ByDecade(shuffled, domain.OverviewFeatures)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("decade means depend on row order (-want +got):\n%s", diff)
		}
	}

	require.Len(t, want, 3)
	assert.Equal(t, domain.Decade("1950s"), want[0].Decade)
	assert.Equal(t, domain.Decade("1990s"), want[2].Decade)
	assert.Equal(t, 3, want[0].Count)
}

func TestMeans_EmptyIsNaN(t *testing.T) {
	means, err := Means(nil, []domain.Feature{domain.Energy})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(means[0].Mean))
}

func TestArtists(t *testing.T) {
	got := Artists(fixture())
	want := []ArtistStat{
		{Artist: "Aretha Franklin", MeanPopularity: 75, Count: 1},
		{Artist: "Elvis Presley", MeanPopularity: 70, Count: 1},
		{Artist: "Nirvana", MeanPopularity: 85, Count: 1},
		{Artist: "Ray Charles", MeanPopularity: 50, Count: 2},
		{Artist: "The Beatles", MeanPopularity: 85, Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("artists mismatch (-want +got):\n%s", diff)
	}
}

func TestArtistMeans(t *testing.T) {
	means, err := ArtistMeans(fixture(), "The Beatles", []domain.Feature{domain.Energy, domain.Popularity})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, means[0].Mean, 1e-12)
	assert.InDelta(t, 85, means[1].Mean, 1e-12)

	_, err = ArtistMeans(fixture(), "Nobody", domain.PageFeatures)
	require.ErrorIs(t, err, domain.ErrUnknownArtist)
}

func TestKeyModePivot_MissingCellIsZero(t *testing.T) {
	tracks := []domain.Track{
		track("A", "1960s", 10, "C-major", false, 0.1),
		track("B", "1950s", 10, "D-minor", false, 0.1),
	}
	p := KeyModePivot(tracks, []domain.Decade{"1960s", "1950s"})

	assert.Equal(t, []string{"1950s", "1960s"}, p.Columns)
	assert.Len(t, p.Rows, 24)
	assert.Equal(t, 0, p.Count("C-major", "1950s"))
	assert.Equal(t, 1, p.Count("C-major", "1960s"))
	assert.Equal(t, 1, p.Count("D-minor", "1950s"))
	assert.Equal(t, 2, p.Total())

	ri := indexOf(p.Rows, "C-major")
	ci := indexOf(p.Columns, "1950s")
	require.GreaterOrEqual(t, ri, 0)
	require.GreaterOrEqual(t, ci, 0)
	assert.Equal(t, 0, p.Counts[ri][ci])
}

func TestKeyModePivot_EmptyInputKeepsAxes(t *testing.T) {
	p := KeyModePivot(nil, []domain.Decade{"1950s"})
	assert.Len(t, p.Rows, 24)
	assert.Equal(t, []string{"1950s"}, p.Columns)
	assert.Equal(t, 0, p.Count("C-major", "1950s"))
}

func TestExplicitByDecade(t *testing.T) {
	p := ExplicitByDecade(fixture(), nil)
	assert.Equal(t, []string{"1950s", "1960s", "1990s"}, p.Rows)
	assert.Equal(t, 1, p.Count("1950s", domain.LabelExplicit))
	assert.Equal(t, 2, p.Count("1950s", domain.LabelNotExplicit))
	assert.Equal(t, 0, p.Count("1960s", domain.LabelExplicit))
	assert.Equal(t, 7, p.Total())
}

func TestValueCounts(t *testing.T) {
	got := ValueCounts(fixture(), func(t domain.Track) string { return t.KeyMode })
	want := []Count{
		{Label: "C-major", Count: 2},
		{Label: "G-major", Count: 2},
		{Label: "A-minor", Count: 1},
		{Label: "E-minor", Count: 1},
		{Label: "F-major", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value counts mismatch (-want +got):\n%s", diff)
	}
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{0, 0.1, 0.5, 0.99, 1}, 10)
	require.Len(t, bins, 10)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, 2, bins[9].Count)
	assert.InDelta(t, 1.0, bins[9].Max, 1e-12)

	constant := Histogram([]float64{2, 2, 2}, 50)
	require.Len(t, constant, 1)
	assert.Equal(t, 3, constant[0].Count)

	assert.Nil(t, Histogram(nil, 50))
}

func TestHistogram_SkipsNonFinite(t *testing.T) {
	bins := Histogram([]float64{0, math.NaN(), 1, math.Inf(1), math.Inf(-1)}, 2)
	require.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Equal(t, 0.0, bins[0].Min)
	assert.Equal(t, 1.0, bins[1].Max)

	assert.Nil(t, Histogram([]float64{math.NaN(), math.NaN()}, 10))
}
