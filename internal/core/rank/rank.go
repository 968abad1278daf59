// Package rank narrows per-artist aggregates down to the top artists of a
// shard.
package rank

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ewilliams-labs/decades/internal/core/aggregate"
)

const (
	DefaultMinTracks = 30
	DefaultTopN      = 50
)

// Options controls filtering and truncation.
type Options struct {
	// MinTracks drops artists with fewer tracks than this.
	MinTracks int
	// TopN keeps at most this many artists; 0 keeps all.
	TopN int
}

// DefaultOptions returns the thresholds used on every decade view.
func DefaultOptions() Options {
	return Options{MinTracks: DefaultMinTracks, TopN: DefaultTopN}
}

// Ranked is an artist that survived filtering, with its normalised score.
type Ranked struct {
	Artist         string  `json:"artist"`
	Score          float64 `json:"score"`
	MeanPopularity float64 `json:"mean_popularity"`
	Count          int     `json:"count"`
}

// MinMaxScale maps values linearly onto [0,1] using their own min and max.
// A constant input maps to all zeros.
func MinMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

// TopArtists scales mean popularity over every artist in stats, drops those
// below MinTracks, and returns the TopN best in descending score order.
//
// The scale is fitted before filtering, so min and max come from all artists
// of the shard. Selection sorts ascending with a stable sort and keeps the
// tail; the tail is then reversed, so equal scores come out in reverse group
// order. Fewer qualifying artists than TopN returns all of them.
func TopArtists(stats []aggregate.ArtistStat, opts Options) []Ranked {
	pops := make([]float64, len(stats))
	for i, s := range stats {
		pops[i] = s.MeanPopularity
	}
	scores := MinMaxScale(pops)

	kept := make([]Ranked, 0, len(stats))
	for i, s := range stats {
		if s.Count < opts.MinTracks {
			continue
		}
		kept = append(kept, Ranked{
			Artist:         s.Artist,
			Score:          scores[i],
			MeanPopularity: s.MeanPopularity,
			Count:          s.Count,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score < kept[j].Score })

	if opts.TopN > 0 && len(kept) > opts.TopN {
		kept = kept[len(kept)-opts.TopN:]
	}

	out := make([]Ranked, len(kept))
	for i, r := range kept {
		out[len(kept)-1-i] = r
	}
	return out
}

// Artists returns the ranked artist names sorted alphabetically, the order
// the artist selector lists them in.
func Artists(ranked []Ranked) []string {
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Artist
	}
	sort.Strings(names)
	return names
}
