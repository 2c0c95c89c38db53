// Package server implements the accredit HTTP API server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dwsmith1983/accredit/internal/server/handlers"
)

// Server is the accredit HTTP API server.
type Server struct {
	handlers *handlers.Handlers
	router   chi.Router
	addr     string
	srv      *http.Server
}

// New creates a new HTTP server. An empty apiKey disables authentication;
// maxBody <= 0 disables the request body limit.
func New(addr string, deps handlers.Deps, apiKey string, maxBody int64) *Server {
	s := &Server{
		handlers: handlers.New(deps),
		addr:     addr,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	r.Use(requireAPIKey(apiKey))
	if maxBody > 0 {
		r.Use(middleware.RequestSize(maxBody))
	}

	s.router = r
	s.registerRoutes(r)
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	fmt.Printf("accredit server listening on %s\n", s.addr)
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
