// Package aggregate computes the grouped statistics shown on each view.
// Every function here is a pure fold over its input: the same multiset of
// tracks yields the same values regardless of row order.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// Summary describes the distribution of one feature.
type Summary struct {
	Feature domain.Feature `json:"feature"`
	Count   int            `json:"count"`
	Mean    float64        `json:"mean"`
	Median  float64        `json:"median"`
	StdDev  float64        `json:"std_dev"`
	Min     float64        `json:"min"`
	Q1      float64        `json:"q1"`
	Q3      float64        `json:"q3"`
	Max     float64        `json:"max"`
}

// FeatureMean pairs a feature with its mean over some set of tracks.
type FeatureMean struct {
	Feature domain.Feature `json:"feature"`
	Mean    float64        `json:"mean"`
}

// Values extracts f from every track, in track order.
func Values(tracks []domain.Track, f domain.Feature) ([]float64, error) {
	out := make([]float64, len(tracks))
	for i, t := range tracks {
		v, err := t.Value(f)
		if err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
		out[i] = v
	}
	return out, nil
}

// Summarize computes the distribution summary of f. An empty input yields a
// zero Summary with Count 0.
func Summarize(tracks []domain.Track, f domain.Feature) (Summary, error) {
	values, err := Values(tracks, f)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Feature: f, Count: len(values)}
	if len(values) == 0 {
		return s, nil
	}

	sort.Float64s(values)
	s.Mean = stat.Mean(values, nil)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Median = quantile(values, 0.5)
	s.Q1 = quantile(values, 0.25)
	s.Q3 = quantile(values, 0.75)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s, nil
}

// Summaries runs Summarize for every feature, preserving feature order.
func Summaries(tracks []domain.Track, features []domain.Feature) ([]Summary, error) {
	out := make([]Summary, 0, len(features))
	for _, f := range features {
		s, err := Summarize(tracks, f)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Means returns the mean of each feature over tracks, in feature order.
// Means over an empty set are NaN.
func Means(tracks []domain.Track, features []domain.Feature) ([]FeatureMean, error) {
	out := make([]FeatureMean, 0, len(features))
	for _, f := range features {
		values, err := Values(tracks, f)
		if err != nil {
			return nil, err
		}
		out = append(out, FeatureMean{Feature: f, Mean: mean(values)})
	}
	return out, nil
}

// mean sorts before summing so the result is bit-identical for any
// permutation of values. The slice is reordered in place.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	return floats.Sum(values) / float64(len(values))
}

// quantile interpolates linearly between closest ranks of an ascending
// slice, so the median of an even-sized set is the midpoint of the two
// central values.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
