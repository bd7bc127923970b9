package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribe(t *testing.T, events *Events) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewHandler(fixture(t), nil, WithEvents(events)))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return events.Subscribers() > 0 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestEvents_Publish(t *testing.T) {
	events := NewEvents(nil)
	defer events.Close()
	conn := subscribe(t, events)

	events.Publish(&ChangeEvent{
		Type:     "reloaded",
		Files:    []string{"app.yml"},
		Loaded:   []string{"app"},
		Duration: 12,
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var got ChangeEvent
	require.NoError(t, json.Unmarshal(message, &got))
	assert.Equal(t, "reloaded", got.Type)
	assert.Equal(t, []string{"app"}, got.Loaded)
	assert.Equal(t, 12.0, got.Duration)
	assert.NotZero(t, got.Timestamp)
}

func TestEvents_MultipleSubscribers(t *testing.T) {
	events := NewEvents(nil)
	defer events.Close()
	first := subscribe(t, events)
	second := subscribe(t, events)
	require.Eventually(t, func() bool { return events.Subscribers() == 2 }, time.Second, 10*time.Millisecond)

	events.Publish(&ChangeEvent{Type: "error", Errors: []EventError{{Code: "MAN103", Message: "unknown kind"}}})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, message, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(message), "MAN103")
	}
}

func TestEvents_Unsubscribe(t *testing.T) {
	events := NewEvents(nil)
	defer events.Close()
	conn := subscribe(t, events)

	conn.Close()
	assert.Eventually(t, func() bool { return events.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestEvents_OriginCheck(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"no origin", "", true},
		{"localhost http", "http://localhost:3000", true},
		{"localhost https", "https://localhost", true},
		{"loopback", "http://127.0.0.1:7070", true},
		{"lookalike host", "http://localhost.evil.com", false},
		{"external origin", "https://evil.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: http.Header{}}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, allowedOrigin(req))
		})
	}
}

func TestEvents_CloseIsIdempotent(t *testing.T) {
	events := NewEvents(nil)
	events.Close()
	events.Close()

	// Publishing after Close must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			events.Publish(&ChangeEvent{Type: "reloaded"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Close")
	}
	assert.Zero(t, events.Subscribers())
}

func TestEventsRouteOnlyWhenEnabled(t *testing.T) {
	rec := get(t, NewHandler(fixture(t), nil), "/events", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
