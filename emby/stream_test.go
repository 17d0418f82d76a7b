package emby

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamNoReturn_DrainsAndReleasesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write(make([]byte, 4096))
		flusher.Flush()
		// End of stream after one chunk.
	}))
	t.Cleanup(server.Close)

	c := newTestConnector(t, testConnectorConfig{url: server.URL, token: "pre-shared"})

	ctx := WithContextID(context.Background(), "streamer")
	err := c.StreamNoReturn(ctx, "/Videos/stream", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.pool.Refs("streamer"), "stream must release its session reference")
}

func TestStreamNoReturn_StopsOnCancellation(t *testing.T) {
	streamStarted := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write(make([]byte, 4096))
		flusher.Flush()
		close(streamStarted)
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	c := newTestConnector(t, testConnectorConfig{url: server.URL, token: "pre-shared"})

	ctx, cancel := context.WithCancel(WithContextID(context.Background(), "streamer"))
	done := make(chan error, 1)
	go func() { done <- c.StreamNoReturn(ctx, "/Videos/stream", nil) }()

	<-streamStarted
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation ends the stream cleanly")
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop on cancellation")
	}
	assert.Equal(t, 0, c.pool.Refs("streamer"))
}

func TestProbeWebSocket_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embywebsocket", r.URL.Path)
		assert.Equal(t, "pre-shared", r.URL.Query().Get("api_key"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "KeepAlive", msg.MessageType)
		require.NoError(t, conn.WriteJSON(wsMessage{MessageType: "ForceKeepAlive"}))
	}))
	t.Cleanup(server.Close)

	c := newTestConnector(t, testConnectorConfig{url: server.URL, token: "pre-shared"})

	require.NoError(t, c.ProbeWebSocket(context.Background()))
}

func TestProbeWebSocket_DialFailureIsConnectionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not a websocket endpoint", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	c := newTestConnector(t, testConnectorConfig{url: server.URL, token: "pre-shared"})

	err := c.ProbeWebSocket(context.Background())
	require.Error(t, err)

	kind, ok := ErrKind(err)
	require.True(t, ok)
	assert.Equal(t, KindConnectionFailed, kind)
}
