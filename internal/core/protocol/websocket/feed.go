package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/observability/log"
)

var (
	ErrRunning    = errors.New("feed is already running")
	ErrNotRunning = errors.New("feed is not running")
)

// Config holds debug feed settings.
type Config struct {
	Addr         string
	WriteTimeout time.Duration
	BufferSize   int
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8089",
		WriteTimeout: 2 * time.Second,
		BufferSize:   4096,
	}
}

// Snapshot is one JSON text frame sent to clients.
type Snapshot struct {
	Seq   uint64                   `json:"seq"`
	Time  time.Time                `json:"time"`
	Hands []interaction.HandStatus `json:"hands"`
}

type client struct {
	id   string
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

// Feed streams hand status snapshots to websocket clients at /ws and
// reports liveness at /health. New clients receive the latest snapshot on
// connect. Publish may be called from any goroutine.
type Feed struct {
	cfg      Config
	logger   log.Log
	upgrader websocket.Upgrader

	server   *http.Server
	listener net.Listener
	running  atomic.Bool

	mu      sync.RWMutex
	clients map[string]*client
	latest  []byte
	seq     uint64

	sent atomic.Int64
}

func NewFeed(cfg Config, logger log.Log) *Feed {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &Feed{
		cfg:     cfg,
		logger:  log.OrNop(logger).With(log.String("protocol", "websocket")),
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.BufferSize,
			WriteBufferSize: cfg.BufferSize,
			// debug tooling, any page may connect
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler serves /ws and /health.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.handleWebSocket)
	mux.HandleFunc("/health", f.handleHealth)
	return mux
}

// Start binds the configured address and serves in the background.
func (f *Feed) Start(_ context.Context) error {
	if !f.running.CompareAndSwap(false, true) {
		return fmt.Errorf("websocket: %w", ErrRunning)
	}

	ln, err := net.Listen("tcp", f.cfg.Addr)
	if err != nil {
		f.running.Store(false)
		return fmt.Errorf("websocket: listen %s: %w", f.cfg.Addr, err)
	}
	f.listener = ln
	f.server = &http.Server{
		Handler:           f.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("feed server error", log.Error(err))
		}
	}()

	f.logger.Info("feed started", log.String("address", ln.Addr().String()))
	return nil
}

// Addr is the bound address while running.
func (f *Feed) Addr() string {
	if f.listener == nil {
		return ""
	}
	return f.listener.Addr().String()
}

// Stop closes every client and shuts the server down.
func (f *Feed) Stop(ctx context.Context) error {
	if !f.running.CompareAndSwap(true, false) {
		return fmt.Errorf("websocket: %w", ErrNotRunning)
	}

	f.mu.Lock()
	for id, c := range f.clients {
		_ = c.conn.Close()
		delete(f.clients, id)
	}
	f.mu.Unlock()

	if err := f.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("websocket: shutdown: %w", err)
	}
	f.logger.Info("feed stopped", log.Int64("frames_sent", f.sent.Load()))
	return nil
}

// Publish stores hands as the latest snapshot and sends it to every client.
// Clients that fail the write are dropped.
func (f *Feed) Publish(hands []interaction.HandStatus) error {
	f.mu.Lock()
	f.seq++
	data, err := json.Marshal(Snapshot{Seq: f.seq, Time: time.Now().UTC(), Hands: hands})
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("websocket: encode snapshot: %w", err)
	}
	f.latest = data
	targets := make([]*client, 0, len(f.clients))
	for _, c := range f.clients {
		targets = append(targets, c)
	}
	f.mu.Unlock()

	for _, c := range targets {
		if err := f.write(c, data); err != nil {
			f.logger.Debug("dropping client", log.String("client_id", c.id), log.Error(err))
			f.drop(c)
		}
	}
	return nil
}

// ClientCount is the number of connected clients.
func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

func (f *Feed) write(c *client, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	f.sent.Add(1)
	return nil
}

func (f *Feed) drop(c *client) {
	f.mu.Lock()
	if _, ok := f.clients[c.id]; ok {
		delete(f.clients, c.id)
		_ = c.conn.Close()
	}
	f.mu.Unlock()
}

func (f *Feed) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{id: uuid.NewString(), conn: conn}

	f.mu.Lock()
	f.clients[c.id] = c
	latest := f.latest
	f.mu.Unlock()
	f.logger.Info("client connected", log.String("client_id", c.id))

	if latest != nil {
		if err = f.write(c, latest); err != nil {
			f.drop(c)
			return
		}
	}

	go f.readLoop(c)
}

// readLoop discards client messages and notices disconnects.
func (f *Feed) readLoop(c *client) {
	defer func() {
		f.drop(c)
		f.logger.Info("client disconnected", log.String("client_id", c.id))
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.logger.Debug("websocket read error", log.Error(err))
			}
			return
		}
	}
}

func (f *Feed) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status":"healthy","connections":%d}`, f.ClientCount())
}
