package browser

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"

	"github.com/hummhq/humm/pkg/logging"
)

// wireFrame is the JSON shape pushed to live-view clients.
type wireFrame struct {
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Sequence  int       `json:"sequence"`
}

// WebSocketSink forwards captured frames over an established websocket
// connection as JSON text messages. Frames that cannot be written within the
// timeout are dropped with a log line; a live view prefers fresh frames over
// backpressure into the capture loop.
type WebSocketSink struct {
	conn         *websocket.Conn
	log          *logging.Logger
	writeTimeout time.Duration
}

// NewWebSocketSink wraps an accepted or dialed websocket connection. A zero
// writeTimeout defaults to one second.
func NewWebSocketSink(conn *websocket.Conn, log *logging.Logger, writeTimeout time.Duration) *WebSocketSink {
	if writeTimeout <= 0 {
		writeTimeout = time.Second
	}
	return &WebSocketSink{conn: conn, log: log, writeTimeout: writeTimeout}
}

// HandleFrame implements FrameSink.
func (s *WebSocketSink) HandleFrame(frame Frame) {
	payload, err := json.Marshal(wireFrame{
		Data:      frame.Data,
		Timestamp: frame.Timestamp,
		Sequence:  frame.Sequence,
	})
	if err != nil {
		s.log.Warnf("frame %d encode failed: %v", frame.Sequence, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if err := s.conn.Write(ctx, websocket.MessageText, payload); err != nil {
		s.log.Warnf("frame %d dropped: %v", frame.Sequence, err)
	}
}

// Close closes the underlying connection with a normal closure status.
func (s *WebSocketSink) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "stream ended")
}
