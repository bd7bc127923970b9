package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ChangeEvent tells subscribers that the served assemblies changed
type ChangeEvent struct {
	Type      string       `json:"type"` // "reloaded" or "error"
	Timestamp int64        `json:"timestamp"`
	Files     []string     `json:"files,omitempty"`
	Loaded    []string     `json:"loaded,omitempty"`
	Removed   []string     `json:"removed,omitempty"`
	Errors    []EventError `json:"errors,omitempty"`
	Duration  float64      `json:"duration,omitempty"` // Milliseconds
}

// EventError describes one manifest problem in a ChangeEvent
type EventError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Type    string `json:"type,omitempty"`
	Member  string `json:"member,omitempty"`
}

// Events fans change events out to WebSocket subscribers of /events
type Events struct {
	connections map[*websocket.Conn]bool
	broadcast   chan *ChangeEvent
	register    chan *websocket.Conn
	unregister  chan *websocket.Conn
	done        chan struct{}
	closeOnce   sync.Once
	mutex       sync.RWMutex
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewEvents creates an event hub. Only same-host and loopback origins may
// subscribe.
func NewEvents(logger *zap.Logger) *Events {
	e := &Events{
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan *ChangeEvent, 256),
		register:    make(chan *websocket.Conn),
		unregister:  make(chan *websocket.Conn),
		done:        make(chan struct{}),
		logger:      logging.OrNop(logger),
	}
	e.upgrader = websocket.Upgrader{
		CheckOrigin:     allowedOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	go e.run()

	return e
}

// allowedOrigin accepts requests without an Origin header and origins on
// localhost or 127.0.0.1
func allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (e *Events) run() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return

		case conn := <-e.register:
			e.mutex.Lock()
			e.connections[conn] = true
			count := len(e.connections)
			e.mutex.Unlock()
			e.logger.Debug("event subscriber connected", zap.Int("subscribers", count))

		case conn := <-e.unregister:
			e.drop(conn)

		case event := <-e.broadcast:
			e.sendToAll(event)

		case <-ticker.C:
			e.ping()
		}
	}
}

func (e *Events) drop(conn *websocket.Conn) {
	e.mutex.Lock()
	if _, ok := e.connections[conn]; ok {
		delete(e.connections, conn)
		conn.Close()
	}
	count := len(e.connections)
	e.mutex.Unlock()
	e.logger.Debug("event subscriber disconnected", zap.Int("subscribers", count))
}

// sendToAll writes event to every subscriber and drops the ones that fail
func (e *Events) sendToAll(event *ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("failed to marshal change event", zap.Error(err))
		return
	}

	e.mutex.RLock()
	var failed []*websocket.Conn
	for conn := range e.connections {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			e.logger.Warn("failed to send change event", zap.Error(err))
			failed = append(failed, conn)
		}
	}
	e.mutex.RUnlock()

	for _, conn := range failed {
		e.drop(conn)
	}
}

func (e *Events) ping() {
	deadline := time.Now().Add(10 * time.Second)
	e.mutex.RLock()
	var failed []*websocket.Conn
	for conn := range e.connections {
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			failed = append(failed, conn)
		}
	}
	e.mutex.RUnlock()

	for _, conn := range failed {
		e.drop(conn)
	}
}

// ServeHTTP upgrades the request to a WebSocket subscription
func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	select {
	case e.register <- conn:
	case <-e.done:
		conn.Close()
		return
	}

	go e.readMessages(conn)
}

// readMessages drains the client side so pongs and close frames are seen
func (e *Events) readMessages(conn *websocket.Conn) {
	defer func() {
		select {
		case e.unregister <- conn:
		case <-e.done:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				e.logger.Debug("websocket error", zap.Error(err))
			}
			return
		}
	}
}

// Publish queues event for every subscriber. It never blocks after Close.
func (e *Events) Publish(event *ChangeEvent) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	select {
	case e.broadcast <- event:
	case <-e.done:
	}
}

// Subscribers returns the number of connected subscribers
func (e *Events) Subscribers() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return len(e.connections)
}

// Close disconnects every subscriber and stops the hub
func (e *Events) Close() {
	e.closeOnce.Do(func() {
		close(e.done)

		e.mutex.Lock()
		defer e.mutex.Unlock()
		for conn := range e.connections {
			conn.Close()
		}
		e.connections = make(map[*websocket.Conn]bool)
	})
}
