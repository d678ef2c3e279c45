package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"loreloom/internal/turns"
)

type collectingHandler struct {
	events     chan turns.Event
	reconnects chan struct{}
}

func newCollectingHandler() *collectingHandler {
	return &collectingHandler{
		events:     make(chan turns.Event, 16),
		reconnects: make(chan struct{}, 16),
	}
}

func (h *collectingHandler) HandleEvent(ev turns.Event) { h.events <- ev }
func (h *collectingHandler) Reconnected()               { h.reconnects <- struct{}{} }

// pushServer upgrades each connection and sends the given frames.
func pushServer(t *testing.T, frames []string, wantAuth string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantAuth != "" {
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientDeliversDecodedEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := pushServer(t, []string{
		`{"type":"turn_started","turn_number":1,"session_id":"sess-1"}`,
		`{"type":"turn_message","turn_number":1,"response_type":"streaming","content":"hi"}`,
		`{"type":"dice_rolled","turn_number":1}`,
		`{"type":"turn_complete","turn_number":1,"session_id":"sess-1"}`,
	}, "Bearer tok-1")
	defer srv.Close()

	handler := newCollectingHandler()
	client := NewClient(wsURL(srv), "tok-1", handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	var got []turns.Event
	timeout := time.After(5 * time.Second)
	for len(got) < 3 {
		select {
		case ev := <-handler.events:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out with %d events", len(got))
		}
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	_, ok := got[0].(turns.TurnStarted)
	assert.True(t, ok, "first event should be TurnStarted, got %T", got[0])
	msg, ok := got[1].(turns.TurnMessage)
	require.True(t, ok)
	assert.Equal(t, "hi", msg.Content)
	// The unknown dice_rolled frame was skipped entirely.
	_, ok = got[2].(turns.TurnComplete)
	assert.True(t, ok, "unknown frame kinds are skipped, got %T", got[2])
}

func TestClientReconnectsAndSignals(t *testing.T) {
	defer goleak.VerifyNone(t)

	upgrader := websocket.Upgrader{}
	conns := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conns++
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if conns == 1 {
			// Drop the first connection immediately to force a
			// reconnect.
			conn.Close()
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"turn_started","turn_number":2,"session_id":"sess-1"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	handler := newCollectingHandler()
	client := NewClient(wsURL(srv), "", handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	select {
	case <-handler.reconnects:
	case <-time.After(10 * time.Second):
		t.Fatal("expected a reconnect signal")
	}
	select {
	case ev := <-handler.events:
		started, ok := ev.(turns.TurnStarted)
		require.True(t, ok)
		assert.Equal(t, 2, started.TurnNumber)
	case <-time.After(5 * time.Second):
		t.Fatal("expected the post-reconnect event")
	}

	cancel()
	<-done
}

func TestClientStopsWhenCancelledWhileDialing(t *testing.T) {
	defer goleak.VerifyNone(t)

	handler := newCollectingHandler()
	// Nothing listens on this port.
	client := NewClient("ws://127.0.0.1:1/ws", "", handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
