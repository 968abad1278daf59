package domain

import (
	"fmt"
	"strings"
)

const (
	LabelExplicit    = "Explicit"
	LabelNotExplicit = "Not Explicit"

	// ArtistTrackSeparator joins first artist and track name.
	ArtistTrackSeparator = " - "

	msPerMinute = 60000.0
)

// ParseExplicit accepts the 0/1 integer flag of the source data and its
// boolean spellings. Anything else is an error, never a default.
func ParseExplicit(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("domain: %w: explicit flag %q", ErrUnexpectedValue, raw)
	}
}

// ExplicitLabel maps the flag to its display label.
func ExplicitLabel(explicit bool) string {
	if explicit {
		return LabelExplicit
	}
	return LabelNotExplicit
}

// DurationMinutes converts milliseconds to minutes.
func DurationMinutes(ms float64) float64 {
	return ms / msPerMinute
}

// DurationMillis converts minutes back to milliseconds.
func DurationMillis(minutes float64) float64 {
	return minutes * msPerMinute
}

// ArtistTrackLabel combines the first artist and the track name.
func ArtistTrackLabel(artist, name string) string {
	return artist + ArtistTrackSeparator + name
}
