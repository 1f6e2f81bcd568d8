// Package server exposes the scan service over HTTP for the operator
// web client.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ofsdigital/acta-scanner/internal/config"
	"github.com/ofsdigital/acta-scanner/internal/scan"
)

// NewRouter builds the HTTP routing table over the scan service.
func NewRouter(svc *scan.Service, maxUpload int64, log zerolog.Logger) http.Handler {
	h := &handler{svc: svc, maxUpload: maxUpload, log: log}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/qr", h.scanQR)
		r.Post("/image", h.scanImage)
		r.Post("/pdf", h.scanPDF)
		r.Get("/records", h.listRecords)
		r.Get("/export", h.exportRecords)
		r.Post("/clear", h.clearRecords)
	})

	return r
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

// New creates an HTTP server for the configured address.
func New(cfg *config.Config, svc *scan.Service, log zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address(),
			Handler:           NewRouter(svc, cfg.MaxUploadSize, log),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       2 * time.Minute,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       5 * time.Minute,
		},
		log: log,
	}
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("address", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
