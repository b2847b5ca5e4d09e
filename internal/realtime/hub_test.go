package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(userID, w, r)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func waitForSessions(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Connected(userID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d sessions for %s, have %d", want, userID, hub.Connected(userID))
}

func TestHubDeliversToConnectedUser(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub, "user-1")
	waitForSessions(t, hub, "user-1", 1)

	hub.Send("user-1", Event{Event: "notification.created", Data: map[string]any{"id": "n-1"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, "notification.created", received.Event)
}

func TestHubDropsOfflineUserSilently(t *testing.T) {
	hub := NewHub()

	// Must not block or panic when nobody is connected.
	hub.Send("ghost", Event{Event: "notification.created"})
	hub.SendToUsers([]string{"ghost", "phantom"}, Event{Event: "notification.created"})
}

func TestHubDisconnectRemovesSession(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub, "user-2")
	waitForSessions(t, hub, "user-2", 1)

	require.NoError(t, conn.Close())
	waitForSessions(t, hub, "user-2", 0)
}
