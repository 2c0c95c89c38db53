package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

func (h *Handlers) admin(w http.ResponseWriter, r *http.Request) (projection.Admin, bool) {
	kind, err := types.ParseProjectionKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	a, err := h.projections.Admin(kind)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	return a, true
}

// GetProjection returns one record from one projection store.
func (h *Handlers) GetProjection(w http.ResponseWriter, r *http.Request) {
	a, ok := h.admin(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	row, err := a.Row(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "failed to get record")
		return
	}
	h.writeJSON(w, http.StatusOK, row)
}

// PatchProjection applies a partial update to one record.
func (h *Handlers) PatchProjection(w http.ResponseWriter, r *http.Request) {
	a, ok := h.admin(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	id := chi.URLParam(r, "id")
	row, err := a.Patch(r.Context(), id, patch)
	if err != nil {
		h.storeError(w, err, "failed to update record")
		return
	}
	h.writeJSON(w, http.StatusOK, row)
}

// DeleteProjection removes one record from one projection store.
func (h *Handlers) DeleteProjection(w http.ResponseWriter, r *http.Request) {
	a, ok := h.admin(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.Delete(r.Context(), id); err != nil {
		h.storeError(w, err, "failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) storeError(w http.ResponseWriter, err error, msg string) {
	var vf *projection.ValidationFailure
	switch {
	case provider.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, "record not found", nil)
	case errors.As(err, &vf):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": vf.Fields,
		})
	default:
		h.writeError(w, http.StatusInternalServerError, msg, err)
	}
}
