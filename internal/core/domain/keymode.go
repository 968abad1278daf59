package domain

import (
	"fmt"
	"strings"
)

// PitchClasses in chromatic order starting at C.
var PitchClasses = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Modes a key can be played in.
var Modes = []string{"major", "minor"}

// AllKeyModes enumerates every canonical key/mode label, majors before minors
// within each pitch class.
func AllKeyModes() []string {
	out := make([]string, 0, len(PitchClasses)*len(Modes))
	for _, p := range PitchClasses {
		for _, m := range Modes {
			out = append(out, p+"-"+m)
		}
	}
	return out
}

// ParseKeyMode normalises labels like "C - major", "c# minor" or "C-major"
// to the canonical "C-major" form.
func ParseKeyMode(raw string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "-", " ")
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return "", fmt.Errorf("domain: %w: key_mode %q", ErrUnexpectedValue, raw)
	}

	pitch := strings.ToUpper(parts[0])
	mode := strings.ToLower(parts[1])

	validPitch := false
	for _, p := range PitchClasses {
		if p == pitch {
			validPitch = true
			break
		}
	}
	if !validPitch || (mode != "major" && mode != "minor") {
		return "", fmt.Errorf("domain: %w: key_mode %q", ErrUnexpectedValue, raw)
	}

	return pitch + "-" + mode, nil
}
