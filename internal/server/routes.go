package server

import (
	"github.com/go-chi/chi/v5"
)

func (s *Server) registerRoutes(r chi.Router) {
	h := s.handlers

	r.Route("/api", func(r chi.Router) {
		// Health
		r.Get("/health", h.Health)

		// Ingestion
		r.Post("/uploads", h.Upload)

		// Reconstructed observations
		r.Get("/observations", h.ListObservations)
		r.Get("/observations/incomplete", h.ListIncomplete)

		// Single-store administration
		r.Get("/projections/{kind}/{id}", h.GetProjection)
		r.Patch("/projections/{kind}/{id}", h.PatchProjection)
		r.Delete("/projections/{kind}/{id}", h.DeleteProjection)
	})
}
