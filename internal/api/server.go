package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// spectatorInterval is how often spectators receive the latest snapshot.
const spectatorInterval = 100 * time.Millisecond

// Server wraps the router with the background workers that belong to it:
// the spectator hub and the rate limiter sweeper.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	spectators  *SpectatorHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates the API server. Background workers do NOT start until
// Start is called; use Router with httptest in tests.
func NewServer(cfg RouterConfig) *Server {
	s := &Server{
		engine:      cfg.Engine,
		spectators:  NewSpectatorHub(),
		rateLimiter: cfg.RateLimiter,
	}
	if s.rateLimiter == nil {
		rlCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rlCfg = *cfg.RateLimitConfig
		}
		s.rateLimiter = NewIPRateLimiter(rlCfg)
	}

	cfg.RateLimiter = s.rateLimiter
	cfg.Spectators = s.spectators
	s.router = NewRouter(cfg)
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Spectators returns the hub so engine events can be forwarded to it.
func (s *Server) Spectators() *SpectatorHub {
	return s.spectators
}

// Start launches the background workers and serves addr until Shutdown.
// It returns nil after a graceful shutdown.
func (s *Server) Start(addr string) error {
	go s.spectators.Run()
	s.spectators.StartBroadcastLoop(s.engine, spectatorInterval)
	s.rateLimiter.StartCleanup()

	s.httpServer.Addr = addr
	log.Printf("🌐 API server starting on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown stops accepting requests and ends the background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.spectators.Stop()
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
