package derive

import (
	"strings"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// DisplayValue rescales loudness and tempo so they share an axis with the
// [0,1] features. The result is for chart axes only.
func DisplayValue(f domain.Feature, v float64) float64 {
	switch f {
	case domain.Loudness:
		return -v / 10
	case domain.Tempo:
		return v / 100
	default:
		return v
	}
}

// DisplayLabel is the axis label matching DisplayValue.
func DisplayLabel(f domain.Feature) string {
	name := string(f)
	switch f {
	case domain.Loudness:
		name = "loudness x 10"
	case domain.Tempo:
		name = "tempo x 100"
	}
	return Capitalize(name)
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
