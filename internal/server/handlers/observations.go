package handlers

import (
	"net/http"

	"github.com/dwsmith1983/accredit/internal/reconstruct"
)

// ListObservations returns one sorted page of reconstructed observations.
func (h *Handlers) ListObservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := reconstruct.ParseParams(q.Get("page"), q.Get("page_size"), q.Get("sort_by"), q.Get("sort_order"))

	page, err := h.flattener.List(r.Context(), params)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to list observations", err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// ListIncomplete returns identifiers missing at least one projection.
func (h *Handlers) ListIncomplete(w http.ResponseWriter, r *http.Request) {
	partial, err := h.flattener.Incomplete(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to list incomplete observations", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"results": partial})
}
