package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

// Message kinds sent to WebSocket clients.
const (
	MessageDashboard = "dashboard"
	MessageEvent     = "event"
)

// Message is one frame sent to WebSocket clients. The first
// frame on every connection is a dashboard snapshot; each later
// frame carries one event.
type Message struct {
	Kind      string          `json:"kind"`
	Dashboard *DashboardState `json:"dashboard,omitempty"`
	Event     *CaseEvent      `json:"event,omitempty"`
}

// Server publishes live run progress over WebSocket and the
// current dashboard, summary and metrics over plain HTTP.
type Server struct {
	mu        sync.Mutex
	collector *EventCollector
	dashboard *Dashboard
	metrics   http.Handler
	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	addr      string
	server    *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a monitor server for collector. Every event
// the collector emits from now on updates dashboard and is
// broadcast to connected clients.
func NewServer(
	addr string,
	collector *EventCollector,
	dashboard *Dashboard,
	opts ...ServerOption,
) *Server {
	s := &Server{
		addr:      addr,
		collector: collector,
		dashboard: dashboard,
		clients:   make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	collector.OnEvent(s.publish)
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Start serves until ctx is done or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), writeWait,
		)
		defer cancel()
		_ = s.Stop(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop disconnects every client and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// publish folds event into the dashboard and broadcasts it. The
// lock orders it against client registration, so a new client
// never sees an event both in its snapshot and as a frame.
func (s *Server) publish(event CaseEvent) {
	data, err := json.Marshal(Message{Kind: MessageEvent, Event: &event})
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard.UpdateFromEvent(event)
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	snap := s.dashboard.Snapshot()
	if data, err := json.Marshal(Message{
		Kind: MessageDashboard, Dashboard: &snap,
	}); err == nil {
		c.send <- data
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.readLoop(c)
	s.writeLoop(c)
}

// readLoop discards client frames and detects disconnects.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.drop(c)
			return
		}
	}
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.dashboard.Snapshot())
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary := s.collector.LastSummary()
	if summary == nil {
		http.Error(w, "no finished run", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}
