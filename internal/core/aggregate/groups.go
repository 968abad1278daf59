package aggregate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// DecadeMeans holds the feature means of one decade.
type DecadeMeans struct {
	Decade domain.Decade `json:"decade"`
	Count  int           `json:"count"`
	Means  []FeatureMean `json:"means"`
}

// ArtistStat is the per-artist popularity aggregate fed to the ranker.
type ArtistStat struct {
	Artist         string  `json:"artist"`
	MeanPopularity float64 `json:"mean_popularity"`
	Count          int     `json:"count"`
}

// Count is one entry of a value-count table.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ByDecade groups tracks by decade and averages each feature. Decades are
// returned in chronological order.
func ByDecade(tracks []domain.Track, features []domain.Feature) ([]DecadeMeans, error) {
	groups := make(map[domain.Decade][]domain.Track)
	for _, t := range tracks {
		groups[t.Decade] = append(groups[t.Decade], t)
	}

	decades := make([]domain.Decade, 0, len(groups))
	for d := range groups {
		decades = append(decades, d)
	}
	domain.SortDecades(decades)

	out := make([]DecadeMeans, 0, len(decades))
	for _, d := range decades {
		means, err := Means(groups[d], features)
		if err != nil {
			return nil, err
		}
		out = append(out, DecadeMeans{Decade: d, Count: len(groups[d]), Means: means})
	}
	return out, nil
}

// Artists computes mean popularity and track count per first artist. Groups
// are enumerated in ascending artist-name order; that order is what the
// ranker's stable sort falls back to on ties.
func Artists(tracks []domain.Track) []ArtistStat {
	type acc struct {
		pops []float64
	}
	groups := make(map[string]*acc)
	for _, t := range tracks {
		a, ok := groups[t.FirstArtist]
		if !ok {
			a = &acc{}
			groups[t.FirstArtist] = a
		}
		a.pops = append(a.pops, float64(t.Popularity))
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ArtistStat, 0, len(names))
	for _, name := range names {
		a := groups[name]
		out = append(out, ArtistStat{
			Artist:         name,
			MeanPopularity: mean(a.pops),
			Count:          len(a.pops),
		})
	}
	return out
}

// ArtistMeans averages features over the tracks of a single artist. It
// returns domain.ErrUnknownArtist when the artist has no tracks.
func ArtistMeans(tracks []domain.Track, artist string, features []domain.Feature) ([]FeatureMean, error) {
	var own []domain.Track
	for _, t := range tracks {
		if t.FirstArtist == artist {
			own = append(own, t)
		}
	}
	if len(own) == 0 {
		return nil, fmt.Errorf("aggregate: %w: %q", domain.ErrUnknownArtist, artist)
	}
	return Means(own, features)
}

// ValueCounts counts tracks per label, most frequent first; equal counts are
// ordered by label.
func ValueCounts(tracks []domain.Track, key func(domain.Track) string) []Count {
	counts := make(map[string]int)
	for _, t := range tracks {
		counts[key(t)]++
	}
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Bin is one equal-width histogram bucket covering [Min, Max).
type Bin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Histogram splits the range of values into n equal-width bins. The top
// edge is inclusive so the maximum lands in the last bin. A constant input
// produces a single bin holding everything. NaN and infinite values are
// not counted.
func Histogram(values []float64, n int) []Bin {
	values = finiteValues(values)
	if len(values) == 0 || n < 1 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return []Bin{{Min: lo, Max: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Min = lo + float64(i)*width
		bins[i].Max = lo + float64(i+1)*width
	}
	bins[n-1].Max = hi

	for _, v := range values {
		i := int((v - lo) / width)
		switch {
		case i < 0:
			i = 0
		case i >= n:
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}

func finiteValues(values []float64) []float64 {
	out := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
