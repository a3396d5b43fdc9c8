// Package logtail subscribes to the backend's live log feed over a
// websocket. Logs are a peripheral push channel: they never influence the
// session state, they only fill the log panel.
package logtail

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Tailer maintains a websocket subscription to the backend's log topic,
// reconnecting with a fixed backoff when the connection drops. Received
// lines are delivered on Lines in arrival order; the channel is closed when
// Run returns.
type Tailer struct {
	url     string
	lines   chan string
	backoff time.Duration
	log     *slog.Logger
}

// NewTailer creates a tailer for the given ws:// or wss:// endpoint.
func NewTailer(url string, log *slog.Logger) *Tailer {
	if log == nil {
		log = slog.Default()
	}
	return &Tailer{
		url:     url,
		lines:   make(chan string, 64),
		backoff: 3 * time.Second,
		log:     log,
	}
}

// Lines is the stream of received log lines.
func (t *Tailer) Lines() <-chan string {
	return t.lines
}

// Run connects and reads until ctx is done. The backend replays recent
// history on connect, so a reconnect repaints the panel rather than leaving
// a gap.
func (t *Tailer) Run(ctx context.Context) {
	defer close(t.lines)
	for {
		if err := t.tail(ctx); err != nil && ctx.Err() == nil {
			t.log.Warn("log tail disconnected", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.backoff):
		}
	}
}

func (t *Tailer) tail(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when ctx ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		select {
		case t.lines <- string(data):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
