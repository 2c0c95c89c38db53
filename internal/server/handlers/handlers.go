// Package handlers implements HTTP request handlers for the accredit API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dwsmith1983/accredit/internal/ingest"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/reconstruct"
)

// Deps are the pipeline components the handlers serve.
type Deps struct {
	Provider     provider.Provider
	Projections  *projection.Set
	Orchestrator *ingest.Orchestrator
	Flattener    *reconstruct.Flattener
}

// Handlers contains all HTTP handler dependencies.
type Handlers struct {
	provider     provider.Provider
	projections  *projection.Set
	orchestrator *ingest.Orchestrator
	flattener    *reconstruct.Flattener
	logger       *slog.Logger
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	return &Handlers{
		provider:     d.Provider,
		projections:  d.Projections,
		orchestrator: d.Orchestrator,
		flattener:    d.Flattener,
		logger:       slog.Default(),
	}
}

// SetLogger overrides the default logger.
func (h *Handlers) SetLogger(l *slog.Logger) {
	if l != nil {
		h.logger = l
	}
}

// writeError logs the internal error and returns a sanitized JSON error to the client.
func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err, "status", status)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
