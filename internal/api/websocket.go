package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"swarm-defense/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxSpectatorsTotal caps spectator sockets across all IPs
	MaxSpectatorsTotal = 200

	// MaxSpectatorsPerIP caps spectator sockets from one IP
	MaxSpectatorsPerIP = 5

	spectatorWriteTimeout = 2 * time.Second
)

var spectatorUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ Spectator rejected from origin: %q", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

type spectator struct {
	conn *websocket.Conn
	ip   string
}

// SpectatorHub fans game state and events out to browser spectators.
// Spectators are read-only: anything they send is discarded.
type SpectatorHub struct {
	clients    map[*websocket.Conn]*spectator
	broadcast  chan []byte
	register   chan *spectator
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	limiter *ConnLimiter
}

// NewSpectatorHub creates a hub. Nothing runs until Run is called.
func NewSpectatorHub() *SpectatorHub {
	return &SpectatorHub{
		clients:    make(map[*websocket.Conn]*spectator),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *spectator),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		limiter:    NewConnLimiter(MaxSpectatorsPerIP),
	}
}

// Run owns the client set until Stop is called.
func (h *SpectatorHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, c := range h.clients {
				h.limiter.Release(c.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.conn] = c
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("👀 Spectator connected from %s (%d total)", c.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.drop(conn)

		case message := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(spectatorWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range failed {
				h.drop(conn)
			}
			IncrementWSMessages()
		}
	}
}

func (h *SpectatorHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		h.limiter.Release(c.ip)
		delete(h.clients, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		log.Printf("👀 Spectator disconnected (%d remaining)", count)
		UpdateWSConnections(count)
	}
}

// Stop closes every spectator and ends Run.
func (h *SpectatorHub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// Broadcast queues an event for every spectator. Drops it if the queue is full,
// so it is safe to call from the tick goroutine.
func (h *SpectatorHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected spectators
func (h *SpectatorHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest snapshot every interval while anyone watches.
func (h *SpectatorHub) StartBroadcastLoop(engine EngineInterface, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}
			if h.ClientCount() == 0 {
				continue
			}
			snap := engine.Snapshot()
			if snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			h.Broadcast("game:state", snap)
		}
	}()
}

// OnKill, OnBreach and OnGameOver forward engine events to spectators.

func (h *SpectatorHub) OnKill(enemy game.EnemySnapshot, cause game.KillCause) {
	h.Broadcast("game:kill", map[string]interface{}{
		"enemy": enemy,
		"cause": cause.String(),
	})
}

func (h *SpectatorHub) OnBreach(health int) {
	h.Broadcast("game:breach", map[string]int{"health": health})
}

func (h *SpectatorHub) OnGameOver(summary game.Summary) {
	h.Broadcast("game:over", summary)
}

// HandleWebSocket upgrades a spectator connection with per-IP and total caps.
func (h *SpectatorHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxSpectatorsTotal {
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.limiter.Acquire(ip) {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := spectatorUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.limiter.Release(ip)
		return
	}

	select {
	case h.register <- &spectator{conn: conn, ip: ip}:
	case <-h.stopChan:
		h.limiter.Release(ip)
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.stopChan:
			}
		}()
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
