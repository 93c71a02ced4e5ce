package devserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, h *hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("server upgrade: %v", err)
		}
		h.add(conn)
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("client dial: %v", err)
	}
	return conn, srv.Close
}

func TestHubBroadcastReachesConnectedClients(t *testing.T) {
	h := newHub()
	conn, closeSrv := dialHub(t, h)
	defer closeSrv()
	defer conn.Close()

	// give the server side a moment to register the connection
	time.Sleep(50 * time.Millisecond)

	h.broadcast(newFullReload(1234))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg FullReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != "full-reload" || msg.Timestamp != 1234 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestHubRemoveStopsFurtherBroadcasts(t *testing.T) {
	h := newHub()
	conn, closeSrv := dialHub(t, h)
	defer closeSrv()
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	h.mu.Lock()
	var only *client
	for c := range h.clients {
		only = c
	}
	h.mu.Unlock()
	if only == nil {
		t.Fatal("expected exactly one registered client")
	}
	h.remove(only)

	h.mu.Lock()
	n := len(h.clients)
	h.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected 0 clients after remove, got %d", n)
	}

	h.broadcast(newFullReload(1))
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg FullReloadMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("expected no message after remove, got %+v", msg)
	}
}
