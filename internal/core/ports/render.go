package ports

import (
	"io"

	"github.com/ewilliams-labs/decades/internal/core/presenter"
)

// ChartRenderer draws a chart specification as an image.
type ChartRenderer interface {
	RenderPNG(w io.Writer, c presenter.Chart) error
}

// PageExporter writes every chart of a page into one document.
type PageExporter interface {
	Export(w io.Writer, p presenter.Page) error
}
