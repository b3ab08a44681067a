// Package api is the local HTTP control surface the UI shell drives: the
// media library, timeline editing, gestures, transport, export, and a
// websocket feed of state changes.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/export"
	"github.com/framecut/framecut/internal/playback"
	"github.com/framecut/framecut/internal/probe"
)

// MediaServer streams a source file with range support.
type MediaServer interface {
	ServeSource(w http.ResponseWriter, r *http.Request, path string) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Catalog    catalog.CatalogService
	Repository catalog.Repository
	Runner     *catalog.Runner
	Session    *editor.Session
	Transport  *playback.Transport
	Media      MediaServer
	Exporter   *export.Exporter
	ExportDir  string
	FrameRate  float64
	Hub        *Hub
	Doctor     *probe.CachedDoctor
	Logger     *slog.Logger
	StartTime  time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Media streams and websockets are long-lived.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
