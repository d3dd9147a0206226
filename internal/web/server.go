// Package web exposes the live analyzer over HTTP and a websocket stream.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guidoenr/bassync/internal/analyzer"
	"github.com/guidoenr/bassync/internal/config"
	"github.com/guidoenr/bassync/internal/timeline"
)

//go:embed static
var staticFS embed.FS

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	clientBuffer = 256
)

// Status is the snapshot the session publishes once per frame.
type Status struct {
	State    analyzer.State  `json:"state"`
	Time     float64         `json:"time"`
	FPS      float64         `json:"fps"`
	Source   string          `json:"source"`
	Upcoming *analyzer.Level `json:"upcoming,omitempty"`
}

// Backend is the session the server reports on and steers.
type Backend interface {
	Status() Status
	// UpdateConfig queues a config mutation for the frame loop.
	UpdateConfig(apply func(*config.BassConfig)) error
	SaveConfig() (string, error)
	Timeline() *timeline.Timeline
}

// ConfigUpdate is a partial config change; nil fields are left alone.
type ConfigUpdate struct {
	ThresholdLow    *float64 `json:"thresholdLow,omitempty"`
	ThresholdMedium *float64 `json:"thresholdMedium,omitempty"`
	ThresholdHigh   *float64 `json:"thresholdHigh,omitempty"`
	PeakEnabled     *bool    `json:"peakEnabled,omitempty"`
	PeakThreshold   *float64 `json:"peakThreshold,omitempty"`
}

func (u ConfigUpdate) apply(c *config.BassConfig) {
	if u.ThresholdLow != nil {
		c.ThresholdLow = *u.ThresholdLow
	}
	if u.ThresholdMedium != nil {
		c.ThresholdMedium = *u.ThresholdMedium
	}
	if u.ThresholdHigh != nil {
		c.ThresholdHigh = *u.ThresholdHigh
	}
	if u.PeakEnabled != nil {
		c.PeakEnabled = *u.PeakEnabled
	}
	if u.PeakThreshold != nil {
		c.PeakThreshold = *u.PeakThreshold
	}
}

// TimelineQuery answers GET /api/timeline?t=&lead=.
type TimelineQuery struct {
	Track    string              `json:"track"`
	Time     float64             `json:"time"`
	Lead     float64             `json:"lead"`
	Level    analyzer.Level      `json:"level"`
	Upcoming analyzer.Level      `json:"upcoming"`
	Event    *timeline.BassEvent `json:"event,omitempty"`
}

// Message is one websocket frame.
type Message struct {
	Type   string          `json:"type"`
	Status *Status         `json:"status,omitempty"`
	Event  *analyzer.Event `json:"event,omitempty"`
}

type Server struct {
	mu        sync.RWMutex
	backend   Backend
	log       *log.Logger
	clients   map[*websocketClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
	interval  time.Duration
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// NewServer builds a server that pushes a status frame every interval.
func NewServer(backend Backend, logger *log.Logger, interval time.Duration) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	s := &Server{
		backend:   backend,
		log:       logger,
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, clientBuffer),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		interval: interval,
	}

	static, _ := fs.Sub(staticFS, "static")
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(static)))
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/api/timeline", s.handleTimeline)
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux = mux
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler { return s.mux }

// Run drives the broadcast and status loops until ctx is done.
func (s *Server) Run(ctx context.Context) {
	go s.statusUpdateLoop(ctx)
	s.broadcastLoop(ctx)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Printf("[web] server starting on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Write broadcasts a detector record to every websocket client.
func (s *Server) Write(ev analyzer.Event) error {
	data, err := json.Marshal(Message{Type: "event", Event: &ev})
	if err != nil {
		return err
	}
	s.publish(data)
	return nil
}

func (s *Server) publish(data []byte) {
	select {
	case s.broadcast <- data:
	default:
		// drop if channel full (non-blocking)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.backend.Status().State.Config)
	case http.MethodPost:
		var req ConfigUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next := s.backend.Status().State.Config
		req.apply(&next)
		if err := next.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.backend.UpdateConfig(req.apply); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, next)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path, err := s.backend.SaveConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to save config: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "path": path})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tl := s.backend.Timeline()
	if tl == nil {
		http.Error(w, "no timeline loaded", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	if q.Get("t") == "" {
		w.Header().Set("Content-Type", "application/json")
		_ = tl.Write(w)
		return
	}

	at, err := strconv.ParseFloat(q.Get("t"), 64)
	if err != nil {
		http.Error(w, "invalid t: "+err.Error(), http.StatusBadRequest)
		return
	}
	lead := 0.0
	if raw := q.Get("lead"); raw != "" {
		if lead, err = strconv.ParseFloat(raw, 64); err != nil || lead < 0 {
			http.Error(w, "invalid lead", http.StatusBadRequest)
			return
		}
	}

	resp := TimelineQuery{
		Track:    tl.Track(),
		Time:     at,
		Lead:     lead,
		Level:    tl.LevelAt(at),
		Upcoming: tl.LevelWithAnticipation(at, lead),
	}
	if ev, ok := tl.CurrentEvent(at); ok {
		resp.Event = &ev
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("[web] websocket upgrade error: %v", err)
		return
	}

	client := &websocketClient{
		conn:   conn,
		send:   make(chan []byte, clientBuffer),
		server: s,
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			for client := range s.clients {
				close(client.send)
				delete(s.clients, client)
			}
			s.mu.Unlock()
			return
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) statusUpdateLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := s.backend.Status()
			data, err := json.Marshal(Message{Type: "status", Status: &status})
			if err == nil {
				s.publish(data)
			}
		}
	}
}

func (c *websocketClient) readPump() {
	defer func() {
		c.server.mu.Lock()
		if c.server.clients[c] {
			delete(c.server.clients, c)
			close(c.send)
		}
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *websocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
