package ports

import (
	"context"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// NarrativeProvider supplies the static prose shown next to the charts.
type NarrativeProvider interface {
	// Narrative returns the text for a view id ("overview", "1950s", ...).
	// Views without text return an empty Narrative and no error.
	Narrative(ctx context.Context, view string) (domain.Narrative, error)
	Glossary(ctx context.Context) ([]domain.Definition, error)
}
