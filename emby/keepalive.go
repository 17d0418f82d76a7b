package emby

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/stevenalfofficial/emby-keeper/events"
	"github.com/stevenalfofficial/emby-keeper/metrics"
)

const (
	probeDialRetries = 3
	probeDialBackoff = 200 * time.Millisecond
	probeReadWindow  = 10 * time.Second
)

// wsMessage is the frame shape Emby speaks over its websocket endpoint.
type wsMessage struct {
	MessageType string          `json:"MessageType"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

// ProbeWebSocket opens the backend's websocket endpoint, sends one KeepAlive
// frame and waits for any reply, as a liveness probe for the session's
// authentication state. Dialing is retried with constant backoff.
func (c *Connector) ProbeWebSocket(ctx context.Context) error {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return err
	}

	token, _ := c.currentAuth()
	query := url.Values{}
	query.Set("api_key", token)
	query.Set("deviceId", "embykeeper")
	wsURL := c.buildURL("/embywebsocket", query, URLOptions{Websocket: true})

	var conn *websocket.Conn
	operation := func() error {
		var err error
		conn, _, err = websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		return err
	}

	strategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(probeDialBackoff), probeDialRetries),
		ctx,
	)
	err := backoff.RetryNotify(operation, strategy, func(err error, d time.Duration) {
		log.Printf("Retrying websocket probe dial: %v (next attempt in %s)", err, d)
	})
	if err != nil {
		metrics.ProbeResults.WithLabelValues("dial_failed").Inc()
		c.emit(events.KindProbeFailure, err.Error())
		return &APIError{Kind: KindConnectionFailed, Path: "/embywebsocket", Attempts: probeDialRetries + 1, Err: err}
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{MessageType: "KeepAlive"}); err != nil {
		metrics.ProbeResults.WithLabelValues("write_failed").Inc()
		c.emit(events.KindProbeFailure, err.Error())
		return &APIError{Kind: KindTransientNetwork, Path: "/embywebsocket", Err: err}
	}

	conn.SetReadDeadline(time.Now().Add(probeReadWindow))
	var reply wsMessage
	if err := conn.ReadJSON(&reply); err != nil {
		metrics.ProbeResults.WithLabelValues("read_failed").Inc()
		c.emit(events.KindProbeFailure, err.Error())
		return &APIError{Kind: KindTransientNetwork, Path: "/embywebsocket", Err: err}
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	metrics.ProbeResults.WithLabelValues("ok").Inc()
	c.emit(events.KindProbeSuccess, reply.MessageType)
	return nil
}
