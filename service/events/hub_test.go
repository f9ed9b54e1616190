package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub()
	router := mux.NewRouter()
	hub.RegisterRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Listeners() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish("abc-123", "confirmed")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "abc-123", event.AppointmentID)
	assert.Equal(t, "confirmed", event.Status)
}

func TestPublishDoesNotBlockOnStalledListener(t *testing.T) {
	hub := NewHub()
	router := mux.NewRouter()
	hub.RegisterRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Listeners() == 1
	}, time.Second, 10*time.Millisecond)

	// The listener never reads, so its socket backs up. Publishing must
	// stay prompt and shed the stalled listener instead of waiting on it.
	status := strings.Repeat("x", 1<<16)
	start := time.Now()
	for i := 0; i < 2048 && hub.Listeners() > 0; i++ {
		hub.Publish("abc-123", status)
	}
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, 0, hub.Listeners(), "stalled listener should have been dropped")
}

func TestHubDropsClosedConnections(t *testing.T) {
	hub := NewHub()
	router := mux.NewRouter()
	hub.RegisterRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.Listeners() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.Listeners() == 0
	}, time.Second, 10*time.Millisecond)
}
