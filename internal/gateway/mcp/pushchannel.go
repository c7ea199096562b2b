package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrChannelClosed is returned when writing to a closed push channel.
var ErrChannelClosed = errors.New("mcp: push channel closed")

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("mcp: response writer does not support streaming")

// PushChannel is a server-sent-events connection bound to one session. All
// writes go through a mutex so heartbeats never interleave with result frames.
type PushChannel struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher

	closed    chan struct{}
	closeOnce sync.Once
}

// NewPushChannel wraps a response writer as an SSE channel and writes the
// stream headers.
func NewPushChannel(w http.ResponseWriter) (*PushChannel, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &PushChannel{
		w:       w,
		flusher: flusher,
		closed:  make(chan struct{}),
	}, nil
}

// SendEvent writes one SSE event. Multi-line payloads are split across data
// lines per the SSE framing rules.
func (c *PushChannel) SendEvent(event string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}

	if event != "" {
		if _, err := fmt.Fprintf(c.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if _, err := fmt.Fprintf(c.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(c.w, "\n"); err != nil {
		return err
	}

	c.flusher.Flush()
	return nil
}

// SendResponse writes a JSON-RPC response frame as a message event.
func (c *PushChannel) SendResponse(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.SendEvent("message", data)
}

// SendComment writes an SSE comment line, used for heartbeats.
func (c *PushChannel) SendComment(comment string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}

	if _, err := fmt.Fprintf(c.w, ": %s\n\n", comment); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// Close marks the channel closed and waits for any in-flight write to drain.
// Safe to call more than once; the HTTP handler notices via Done and returns,
// which ends the connection. The drain means no writer can still touch the
// underlying ResponseWriter once Close returns.
func (c *PushChannel) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
}

// Done is closed when the channel is shut down.
func (c *PushChannel) Done() <-chan struct{} {
	return c.closed
}

// Serve emits the endpoint handshake event carrying the session id, then
// heartbeats until the client disconnects or the channel is closed.
func (c *PushChannel) Serve(ctx context.Context, sessionID string, heartbeat time.Duration) error {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}

	// Closing on the way out also drains concurrent senders, so the caller
	// may release the connection as soon as Serve returns.
	defer c.Close()

	endpoint := fmt.Sprintf("/mcp?sessionId=%s", sessionID)
	if err := c.SendEvent("endpoint", []byte(endpoint)); err != nil {
		return err
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.closed:
			return nil
		case <-ticker.C:
			if err := c.SendComment("heartbeat"); err != nil {
				return nil
			}
		}
	}
}
