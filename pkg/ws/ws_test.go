package ws_test

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/farmchain/farmchain/pkg/ws"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSendToReachesOnlyThatUser(t *testing.T) {
	hub := ws.NewHub(func(*http.Request) bool { return true })
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id uint = 1
		if r.URL.Query().Get("user") == "2" {
			id = 2
		}
		hub.Serve(w, r, id)
	}))
	defer srv.Close()

	alice := dial(t, srv, "1")
	bob := dial(t, srv, "2")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.SendJSON(map[string]string{"event": "order.placed"}, 1, 1))

	alice.SetReadDeadline(time.Now().Add(time.Second)) //nolint:errcheck
	_, msg, err := alice.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"order.placed"}`, string(msg))

	bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond)) //nolint:errcheck
	_, _, err = bob.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's event")
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := ws.NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, 9)
	}))
	defer srv.Close()

	conn := dial(t, srv, "9")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.SendTo(9, []byte("x")))
}

func TestServeEventsStreamsNotifications(t *testing.T) {
	hub := ws.NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeEvents(w, r, 4)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	line, err := lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	line, err = lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "\n", line, "frame terminator")
	require.Equal(t, 1, hub.ClientCount())

	require.NoError(t, hub.SendJSON(map[string]string{"type": "order_placed"}, 4))
	line, err = lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: notification\n", line)
	line, err = lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: {\"type\":\"order_placed\"}\n", line)

	hub.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
