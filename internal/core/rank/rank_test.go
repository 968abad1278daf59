package rank

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/decades/internal/core/aggregate"
)

func TestMinMaxScale(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{name: "empty", values: nil, want: []float64{}},
		{name: "constant maps to zero", values: []float64{7, 7, 7}, want: []float64{0, 0, 0}},
		{name: "single value", values: []float64{42}, want: []float64{0}},
		{name: "spread", values: []float64{10, 20, 30}, want: []float64{0, 0.5, 1}},
		{name: "negative range", values: []float64{-4, 0, 4}, want: []float64{0, 0.5, 1}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := MinMaxScale(tc.values)
			require.Len(t, got, len(tc.want))
			for i := range got {
				assert.InDelta(t, tc.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestMinMaxScale_Bounds(t *testing.T) {
	values := []float64{13.5, 88, 2, 61.25, 40, 2, 88}
	got := MinMaxScale(values)
	for i, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if values[i] == 2 {
			assert.Equal(t, 0.0, v)
		}
		if values[i] == 88 {
			assert.Equal(t, 1.0, v)
		}
	}
}

func stats(n, count int) []aggregate.ArtistStat {
	out := make([]aggregate.ArtistStat, n)
	for i := range out {
		out[i] = aggregate.ArtistStat{
			Artist:         fmt.Sprintf("artist-%03d", i),
			MeanPopularity: float64(i),
			Count:          count,
		}
	}
	return out
}

func TestTopArtists_FewerThanN(t *testing.T) {
	in := append(stats(40, 30), aggregate.ArtistStat{Artist: "zz-small", MeanPopularity: 1000, Count: 29})

	got := TopArtists(in, DefaultOptions())
	require.Len(t, got, 40)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score, "row %d not descending", i)
	}
	assert.Equal(t, "artist-039", got[0].Artist)
	assert.Equal(t, "artist-000", got[39].Artist)
}

func TestTopArtists_ScaleFittedBeforeFilter(t *testing.T) {
	in := []aggregate.ArtistStat{
		{Artist: "a", MeanPopularity: 0, Count: 1},
		{Artist: "b", MeanPopularity: 50, Count: 30},
		{Artist: "c", MeanPopularity: 100, Count: 1},
	}
	got := TopArtists(in, DefaultOptions())
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Artist)
	assert.InDelta(t, 0.5, got[0].Score, 1e-12)
}

func TestTopArtists_TruncatesToN(t *testing.T) {
	got := TopArtists(stats(120, 35), DefaultOptions())
	require.Len(t, got, 50)
	assert.Equal(t, "artist-119", got[0].Artist)
	assert.Equal(t, "artist-070", got[49].Artist)
	assert.InDelta(t, 1.0, got[0].Score, 1e-12)
}

func TestTopArtists_NoneQualify(t *testing.T) {
	got := TopArtists(stats(10, 5), DefaultOptions())
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, TopArtists(nil, DefaultOptions()))
}

func TestTopArtists_TiesComeOutInReverseGroupOrder(t *testing.T) {
	in := []aggregate.ArtistStat{
		{Artist: "alpha", MeanPopularity: 10, Count: 30},
		{Artist: "beta", MeanPopularity: 50, Count: 30},
		{Artist: "gamma", MeanPopularity: 50, Count: 30},
		{Artist: "delta", MeanPopularity: 50, Count: 30},
	}
	got := TopArtists(in, Options{MinTracks: 30, TopN: 2})
	require.Len(t, got, 2)
	assert.Equal(t, "delta", got[0].Artist)
	assert.Equal(t, "gamma", got[1].Artist)
}

func TestArtists_Sorted(t *testing.T) {
	ranked := []Ranked{{Artist: "Nina Simone"}, {Artist: "Duke Ellington"}, {Artist: "Miles Davis"}}
	assert.Equal(t, []string{"Duke Ellington", "Miles Davis", "Nina Simone"}, Artists(ranked))
}
