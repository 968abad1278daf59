package rest

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/ewilliams-labs/decades/internal/core/domain"
)

// ListViews handles GET /views
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Views(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetView handles GET /views/{id}?artist=
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.View(r.Context(), r.PathValue("id"), r.URL.Query().Get("artist"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetArtistFeatures handles GET /views/{id}/artists/{artist}
func (h *Handler) GetArtistFeatures(w http.ResponseWriter, r *http.Request) {
	decade, err := domain.ParseDecade(r.PathValue("id"))
	if err != nil {
		writeErrorWithCode(w, http.StatusNotFound, "artist features exist only for decade views", errCodeNotFound)
		return
	}
	chart, err := h.svc.ArtistFeatures(r.Context(), decade, r.PathValue("artist"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// GetChartImage handles GET /views/{id}/charts/{chart}.png
func (h *Handler) GetChartImage(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusNotImplemented, "chart rendering not configured")
		return
	}
	chartID, ok := strings.CutSuffix(r.PathValue("chart"), ".png")
	if !ok {
		writeErrorWithCode(w, http.StatusNotFound, "charts are served as .png", errCodeNotFound)
		return
	}

	page, err := h.svc.View(r.Context(), r.PathValue("id"), r.URL.Query().Get("artist"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	chart, ok := page.Chart(chartID)
	if !ok {
		writeErrorWithCode(w, http.StatusNotFound, "no chart "+chartID+" on view "+page.ID, errCodeNotFound)
		return
	}

	// Render fully before writing so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.renderer.RenderPNG(&buf, chart); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ExportView handles GET /views/{id}/export.xlsx
func (h *Handler) ExportView(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export not configured")
		return
	}
	page, err := h.svc.View(r.Context(), r.PathValue("id"), r.URL.Query().Get("artist"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Export(&buf, page); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+page.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
