package api

import (
	"io"
	"net/http"

	"swarm-defense/internal/game"
	"swarm-defense/internal/peer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface is the slice of the engine the API uses, so tests can mock it.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// Snapshot returns the latest immutable snapshot (never nil)
	Snapshot() *game.Snapshot
	// Click queues a click for the next tick; false when the run is over or the queue is full
	Click(x, y float64) bool
	// Purchase buys a shop item and returns how many enemies it killed immediately
	Purchase(itemID string) (int, error)
	// Restart abandons the current run
	Restart()
}

// FrameRenderer draws a snapshot as an image.
type FrameRenderer interface {
	EncodePNG(w io.Writer, snap *game.Snapshot) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	}
//	ts := httptest.NewServer(api.NewRouter(cfg))
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Renderer draws /api/frame.png. If nil the route answers 404.
	Renderer FrameRenderer

	// PeerHandler serves GET /peer when this instance hosts a two-player run.
	PeerHandler http.Handler

	// PeerStats reports link state on /health. Nil in single player.
	PeerStats func() peer.Stats

	// Spectators serves GET /ws. Optional.
	Spectators *SpectatorHub

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to DefaultAllowedOrigins.
	CORSOrigins []string

	// AdminToken protects POST /api/restart when set.
	AdminToken string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine    EngineInterface
	renderer  FrameRenderer
	peerStats func() peer.Stats
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter is pure: it starts no goroutines and opens no listeners, so it is
// safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultAllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	h := &routerHandlers{
		engine:    cfg.Engine,
		renderer:  cfg.Renderer,
		peerStats: cfg.PeerStats,
	}
	admin := NewAdminAuth(cfg.AdminToken)

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Post("/click", h.handleClick)
		r.Get("/frame.png", h.handleFrame)

		r.Get("/shop", h.handleGetShop)
		r.Post("/shop/buy", h.handleShopBuy)

		if admin.Enabled() {
			r.With(admin.Middleware).Post("/restart", h.handleRestart)
		}
	})

	if cfg.PeerHandler != nil {
		r.Method(http.MethodGet, "/peer", cfg.PeerHandler)
	}
	if cfg.Spectators != nil {
		r.Get("/ws", cfg.Spectators.HandleWebSocket)
	}

	return r
}
