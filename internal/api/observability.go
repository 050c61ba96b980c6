package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"swarm-defense/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality: labels are fixed enums, never ids.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swarm_tick_duration_seconds",
		Help:    "Time spent in a simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swarm_frame_render_duration_seconds",
		Help:    "Time spent rendering a PNG frame",
		Buckets: []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.25},
	})

	enemyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_enemies",
		Help: "Enemies currently in the wave",
	})

	baseHealth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_base_health",
		Help: "Remaining base health",
	})

	killsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_kills_total",
		Help: "Enemies destroyed, by cause",
	}, []string{"cause"}) // Bounded: "click", "weapon", "breach"

	spawnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swarm_spawns_total",
		Help: "Enemies spawned by respawn pressure",
	})

	gameOversTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swarm_game_overs_total",
		Help: "Runs that ended with the base destroyed",
	})

	// Peer link
	peerEliminations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_peer_eliminations_total",
		Help: "Elimination counts exchanged with the peer",
	}, []string{"direction"}) // Bounded: "sent", "received"

	peerConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_peer_connected",
		Help: "1 while a peer session is open",
	})

	// Event log
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_event_log_events",
		Help: "Events accepted by the event log",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection, bounded reasons only
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_limit", "ws_total_limit", "auth"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active spectator WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total spectator WebSocket broadcasts",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // MUST stay on localhost
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer starts the pprof + /metrics server in the background.
// It binds to localhost unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg ObservabilityConfig) {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Printf("📊 Debug server on %s (pprof: /debug/pprof/, metrics: /metrics)", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
}

// RecordTick records the per-tick gauges and counters.
func RecordTick(rep game.TickReport) {
	tickDuration.Observe(rep.Duration.Seconds())
	enemyCount.Set(float64(rep.Enemies))
	baseHealth.Set(float64(rep.Health))
	if rep.Spawned > 0 {
		spawnsTotal.Add(float64(rep.Spawned))
	}
}

// RecordKill counts one destroyed enemy.
func RecordKill(cause game.KillCause) {
	killsTotal.WithLabelValues(cause.String()).Inc()
}

// RecordGameOver counts a finished run.
func RecordGameOver() {
	gameOversTotal.Inc()
}

// RecordRender records frame render timing.
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// RecordPeerEliminations counts a batch of eliminations crossing the link.
// direction must be "sent" or "received".
func RecordPeerEliminations(direction string, n uint32) {
	peerEliminations.WithLabelValues(direction).Add(float64(n))
}

// SetPeerConnected updates the peer session gauge.
func SetPeerConnected(connected bool) {
	if connected {
		peerConnected.Set(1)
		return
	}
	peerConnected.Set(0)
}

// UpdateEventLogStats mirrors the event log counters.
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates the spectator connection gauge
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments the broadcast counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// requestMetrics records latency per chi route pattern.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, pattern, status, time.Since(start))
	})
}
