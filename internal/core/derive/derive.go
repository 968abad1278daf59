// Package derive decodes raw table rows into tracks and computes the derived
// columns every view relies on.
package derive

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// Column names of the input schema.
const (
	ColName        = "name"
	ColFirstArtist = "first_artist"
	ColYear        = "year"
	ColDecade      = "decade"
	ColPopularity  = "popularity"
	ColExplicit    = "explicit"
	ColKeyMode     = "key_mode"
	ColDurationMs  = "duration_ms"
	ColDurationMin = "duration_min"
	ColArtistTrack = "artist_track"
)

// layout maps schema columns to header positions.
type layout struct {
	name, artist, year, popularity, explicit, keyMode int
	decade                                           int // -1 when absent
	durationMs, durationMin                          int // at least one is >= 0
	features                                         map[domain.Feature]int
}

func resolve(t domain.Table) (layout, error) {
	var l layout
	var err error

	required := []struct {
		col string
		dst *int
	}{
		{ColName, &l.name},
		{ColFirstArtist, &l.artist},
		{ColYear, &l.year},
		{ColPopularity, &l.popularity},
		{ColExplicit, &l.explicit},
		{ColKeyMode, &l.keyMode},
	}
	for _, r := range required {
		if *r.dst, err = t.Index(r.col); err != nil {
			return layout{}, err
		}
	}

	l.features = make(map[domain.Feature]int, len(domain.AudioFeatureColumns))
	for _, f := range domain.AudioFeatureColumns {
		idx, err := t.Index(string(f))
		if err != nil {
			return layout{}, err
		}
		l.features[f] = idx
	}

	l.decade, _ = t.Index(ColDecade)
	l.durationMs, _ = t.Index(ColDurationMs)
	l.durationMin, _ = t.Index(ColDurationMin)
	if l.durationMs < 0 && l.durationMin < 0 {
		return layout{}, domain.ColumnError{Column: ColDurationMs + " or " + ColDurationMin}
	}

	return l, nil
}

// Tracks decodes every row of t and fills the derived fields. The first bad
// row aborts the whole table; partial results are never returned.
func Tracks(t domain.Table) ([]domain.Track, error) {
	l, err := resolve(t)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}

	tracks := make([]domain.Track, 0, len(t.Rows))
	for i, row := range t.Rows {
		track, err := decodeRow(l, row, i+1)
		if err != nil {
			return nil, fmt.Errorf("derive: %w", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func decodeRow(l layout, row []string, rowNum int) (domain.Track, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	bad := func(col string, idx int, reason string) error {
		return domain.ValueError{Column: col, Row: rowNum, Value: cell(idx), Reason: reason}
	}

	var t domain.Track
	t.Name = cell(l.name)
	t.FirstArtist = cell(l.artist)
	t.ArtistTrack = domain.ArtistTrackLabel(t.FirstArtist, t.Name)

	year, err := strconv.Atoi(cell(l.year))
	if err != nil {
		return domain.Track{}, bad(ColYear, l.year, "not an integer")
	}
	t.Year = year
	t.Decade = domain.DecadeOf(year)

	if l.decade >= 0 && cell(l.decade) != "" {
		d, err := domain.ParseDecade(cell(l.decade))
		if err != nil {
			return domain.Track{}, bad(ColDecade, l.decade, "not a decade label")
		}
		if d != t.Decade {
			return domain.Track{}, bad(ColDecade, l.decade, fmt.Sprintf("year %d belongs to %s", year, t.Decade))
		}
	}

	pop, err := parseInt(cell(l.popularity))
	if err != nil {
		return domain.Track{}, bad(ColPopularity, l.popularity, "not an integer")
	}
	t.Popularity = pop

	explicit, err := domain.ParseExplicit(cell(l.explicit))
	if err != nil {
		return domain.Track{}, bad(ColExplicit, l.explicit, "expected 0 or 1")
	}
	t.Explicit = explicit
	t.ExplicitLabel = domain.ExplicitLabel(explicit)

	km, err := domain.ParseKeyMode(cell(l.keyMode))
	if err != nil {
		return domain.Track{}, bad(ColKeyMode, l.keyMode, "unknown key or mode")
	}
	t.KeyMode = km

	if err := decodeDuration(l, &t, cell, bad); err != nil {
		return domain.Track{}, err
	}

	for _, f := range domain.AudioFeatureColumns {
		idx := l.features[f]
		v, err := strconv.ParseFloat(cell(idx), 64)
		if err != nil {
			return domain.Track{}, bad(string(f), idx, "not a number")
		}
		if !finite(v) {
			return domain.Track{}, bad(string(f), idx, "not a finite number")
		}
		if err := t.Features.Set(f, v); err != nil {
			return domain.Track{}, err
		}
	}

	return t, nil
}

func decodeDuration(l layout, t *domain.Track, cell func(int) string, bad func(string, int, string) error) error {
	if l.durationMs >= 0 {
		ms, err := strconv.ParseFloat(cell(l.durationMs), 64)
		if err != nil {
			return bad(ColDurationMs, l.durationMs, "not a number")
		}
		if !finite(ms) {
			return bad(ColDurationMs, l.durationMs, "not a finite number")
		}
		if ms < 0 {
			return bad(ColDurationMs, l.durationMs, "negative duration")
		}
		t.DurationMs = ms
		t.DurationMin = domain.DurationMinutes(ms)
		return nil
	}

	minutes, err := strconv.ParseFloat(cell(l.durationMin), 64)
	if err != nil {
		return bad(ColDurationMin, l.durationMin, "not a number")
	}
	if !finite(minutes) {
		return bad(ColDurationMin, l.durationMin, "not a finite number")
	}
	if minutes < 0 {
		return bad(ColDurationMin, l.durationMin, "negative duration")
	}
	t.DurationMin = minutes
	t.DurationMs = domain.DurationMillis(minutes)
	return nil
}

// finite rejects the NaN and Inf spellings strconv.ParseFloat accepts.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseInt accepts integral values written as floats ("57.0"), which is how
// some exports serialise integer columns.
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !finite(f) || f != float64(int(f)) {
		return 0, errors.New("fractional value")
	}
	return int(f), nil
}
