package websocket_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"folio/internal/websocket"

	ws "github.com/gorilla/websocket"
)

func TestBroadcastReachesClient(t *testing.T) {
	hub := websocket.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleWebSocket(hub, w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	hub.Broadcast(websocket.Event{Type: "documents_create", ID: "abc", Action: "CREATE"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt websocket.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	if evt.Type != "documents_create" || evt.ID != "abc" || evt.At.IsZero() {
		t.Errorf("unexpected event %+v", evt)
	}

	hub.Close()
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients after Close, got %d", hub.ClientCount())
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := websocket.NewHub()
	hub.Broadcast(websocket.Event{Type: "noop"})
}
