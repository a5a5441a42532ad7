package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/crosswalk/clipper/internal/orchestrator"
	"github.com/crosswalk/clipper/internal/thumbnail"
)

// RequestService is the orchestrator surface the API drives.
type RequestService interface {
	Snapshot() orchestrator.Snapshot
	SetSourceID(id string) error
	Confirm() error
	Cancel() error
	UpdateFields(u orchestrator.FieldUpdate) error
	SetThumbnail(t *thumbnail.Thumbnail) error
	ClearThumbnail() error
	Submit() (string, error)
	Subscribe(buffer int) (<-chan orchestrator.Event, func())
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Requests   RequestService
	APIToken   string
	RemoteMode string
	Version    string
	Logger     *slog.Logger
	StartTime  time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler: router,
			// WriteTimeout stays zero so /events can stream.
			ReadTimeout:  15 * time.Second,
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
