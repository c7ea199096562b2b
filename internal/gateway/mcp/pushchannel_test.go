package mcp

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// gatedWriter blocks its first Write until released, standing in for a slow
// network write on the SSE connection.
type gatedWriter struct {
	header  http.Header
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedWriter() *gatedWriter {
	return &gatedWriter{
		header:  make(http.Header),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (w *gatedWriter) Header() http.Header { return w.header }
func (w *gatedWriter) WriteHeader(int)     {}
func (w *gatedWriter) Flush()              {}

func (w *gatedWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestPushChannelClose(t *testing.T) {
	t.Run("waits for an in-flight write to drain", func(t *testing.T) {
		gw := newGatedWriter()
		ch, err := NewPushChannel(gw)
		require.NoError(t, err)

		sendDone := make(chan struct{})
		go func() {
			defer close(sendDone)
			_ = ch.SendComment("heartbeat")
		}()
		<-gw.entered

		closeDone := make(chan struct{})
		go func() {
			defer close(closeDone)
			ch.Close()
		}()

		// Close must not return while the sender still holds the writer.
		select {
		case <-closeDone:
			t.Fatal("Close returned with a write still in flight")
		case <-time.After(50 * time.Millisecond):
		}

		close(gw.release)
		select {
		case <-closeDone:
		case <-time.After(time.Second):
			t.Fatal("Close did not return after the write drained")
		}
		<-sendDone
	})

	t.Run("sends after close report the channel closed", func(t *testing.T) {
		gw := newGatedWriter()
		close(gw.release)

		ch, err := NewPushChannel(gw)
		require.NoError(t, err)

		ch.Close()
		require.ErrorIs(t, ch.SendComment("heartbeat"), ErrChannelClosed)
		require.ErrorIs(t, ch.SendEvent("message", []byte("x")), ErrChannelClosed)

		// Idempotent.
		ch.Close()
	})
}
