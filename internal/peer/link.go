package peer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"swarm-defense/internal/config"

	"github.com/gorilla/websocket"
)

// ErrBusy is returned when a second session is offered to a link.
var ErrBusy = errors.New("peer link already has a session")

// Stats are cumulative link counters.
type Stats struct {
	Connected bool   `json:"connected"`
	Sent      uint64 `json:"sent"`     // Eliminations reported to the peer
	Received  uint64 `json:"received"` // Eliminations reported by the peer
	Sessions  uint64 `json:"sessions"`
}

// Link carries elimination counts to and from the other instance.
//
// SendEliminated and TakeReceivedEliminated never block: outgoing counts are
// accumulated and flushed by the session's writer, incoming counts pile up
// until the tick drains them. While no session is open, sends are dropped and
// nothing is received.
type Link struct {
	cfg config.NetConfig

	mu   sync.Mutex
	conn *websocket.Conn

	busy      atomic.Bool
	connected atomic.Bool

	pending  atomic.Uint32 // Outgoing, not yet written
	received atomic.Uint32 // Incoming, not yet taken
	wake     chan struct{}
	seq      atomic.Uint64

	sentTotal     atomic.Uint64
	receivedTotal atomic.Uint64
	sessions      atomic.Uint64

	// Optional hooks for metrics. Called from the session goroutines.
	OnSent     func(n uint32)
	OnReceived func(n uint32)
	OnStatus   func(connected bool)
}

// NewLink creates an idle link.
func NewLink(cfg config.NetConfig) *Link {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if cfg.PeerPath == "" {
		cfg.PeerPath = "/peer"
	}
	return &Link{
		cfg:  cfg,
		wake: make(chan struct{}, 1),
	}
}

// SendEliminated reports n local eliminations to the peer (fire-and-forget).
func (l *Link) SendEliminated(n uint32) {
	if n == 0 || !l.connected.Load() {
		return
	}
	l.pending.Add(n)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// TakeReceivedEliminated returns the eliminations the peer reported since the
// previous call and resets the counter.
func (l *Link) TakeReceivedEliminated() uint32 {
	return l.received.Swap(0)
}

// Connected reports whether a session is currently open.
func (l *Link) Connected() bool {
	return l.connected.Load()
}

// Stats returns cumulative counters.
func (l *Link) Stats() Stats {
	return Stats{
		Connected: l.connected.Load(),
		Sent:      l.sentTotal.Load(),
		Received:  l.receivedTotal.Load(),
		Sessions:  l.sessions.Load(),
	}
}

// Close ends the current session, if any.
func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		l.conn.Close()
	}
}

// Serve runs a session over an established connection until it fails or ctx
// ends. It returns ErrBusy if another session is open.
func (l *Link) Serve(ctx context.Context, conn *websocket.Conn) error {
	if !l.busy.CompareAndSwap(false, true) {
		conn.Close()
		return ErrBusy
	}
	return l.run(ctx, conn)
}

// run owns conn for the session. Caller has claimed busy.
func (l *Link) run(ctx context.Context, conn *websocket.Conn) error {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	l.pending.Store(0)
	l.sessions.Add(1)
	l.connected.Store(true)
	l.notify(true)

	defer func() {
		l.connected.Store(false)
		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()
		conn.Close()
		l.busy.Store(false)
		l.notify(false)
	}()

	readErr := make(chan error, 1)
	go func() {
		readErr <- l.readLoop(conn)
	}()

	if err := l.write(conn, Message{Type: MsgHello}); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	ticker := time.NewTicker(l.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(l.cfg.WriteTimeout))
			return ctx.Err()

		case err := <-readErr:
			return err

		case <-l.wake:
			n := l.pending.Swap(0)
			if n == 0 {
				continue
			}
			if err := l.write(conn, Message{Type: MsgEliminated, Count: n}); err != nil {
				return fmt.Errorf("send eliminated: %w", err)
			}
			l.sentTotal.Add(uint64(n))
			if l.OnSent != nil {
				l.OnSent(n)
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(l.cfg.WriteTimeout)); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

// write sends one frame. Only the session goroutine writes data frames.
func (l *Link) write(conn *websocket.Conn, msg Message) error {
	msg.Seq = l.seq.Add(1)
	conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout))
	return conn.WriteJSON(msg)
}

func (l *Link) readLoop(conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	l.extendDeadline(conn)
	conn.SetPongHandler(func(string) error {
		l.extendDeadline(conn)
		return nil
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		l.extendDeadline(conn)

		switch msg.Type {
		case MsgHello:
			log.Printf("🤝 Peer hello from %s", conn.RemoteAddr())
		case MsgEliminated:
			if msg.Count == 0 {
				continue
			}
			l.received.Add(msg.Count)
			l.receivedTotal.Add(uint64(msg.Count))
			if l.OnReceived != nil {
				l.OnReceived(msg.Count)
			}
		default:
			log.Printf("⚠️ Unknown peer message type %q", msg.Type)
		}
	}
}

func (l *Link) extendDeadline(conn *websocket.Conn) {
	if l.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	}
}

func (l *Link) notify(connected bool) {
	if l.OnStatus != nil {
		l.OnStatus(connected)
	}
}

// Handler returns the host endpoint. It upgrades one peer at a time; a second
// concurrent peer gets 409 Conflict.
func (l *Link) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Peers are game processes, not browsers
			return r.Header.Get("Origin") == ""
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.busy.CompareAndSwap(false, true) {
			log.Printf("⚠️ Rejected second peer from %s", r.RemoteAddr)
			http.Error(w, "peer already connected", http.StatusConflict)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			l.busy.Store(false)
			log.Printf("❌ Peer upgrade failed: %v", err)
			return
		}

		log.Printf("🔗 Peer connected from %s", r.RemoteAddr)
		err = l.run(context.Background(), conn)
		log.Printf("🔌 Peer disconnected: %v", err)
	})
}

// Join dials the hosting peer and keeps the session alive, reconnecting with
// exponential backoff, until ctx ends.
func (l *Link) Join(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: l.cfg.PeerAddr, Path: l.cfg.PeerPath}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	delay := l.cfg.ReconnectDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := l.cfg.MaxReconnect
	if maxDelay < delay {
		maxDelay = delay
	}
	backoff := delay

	for {
		conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err == nil {
			log.Printf("🔗 Joined peer at %s", u.String())
			backoff = delay
			err = l.Serve(ctx, conn)
			log.Printf("🔌 Peer session ended: %v", err)
		} else if ctx.Err() == nil {
			log.Printf("⚠️ Peer dial %s failed: %v (retry in %v)", u.String(), err, backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxDelay {
			backoff = maxDelay
		}
	}
}
