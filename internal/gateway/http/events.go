package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/mcp"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// EventsHandler serves GET /mcp with an event-stream accept header: the push
// channel. Opening a stream attaches it to the session, superseding any prior
// one; disconnecting detaches but keeps the session alive.
type EventsHandler struct {
	Sessions  *mcp.SessionRegistry
	Heartbeat time.Duration
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if accept := r.Header.Get("Accept"); !strings.Contains(accept, "text/event-stream") {
		httpx.WriteJSON(w, http.StatusNotAcceptable, map[string]string{
			"error":             "not_acceptable",
			"error_description": "this endpoint serves text/event-stream only",
		})
		return
	}

	sess := h.Sessions.Resolve(r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, sess.ID)

	ch, err := mcp.NewPushChannel(w)
	if err != nil {
		log.Error("failed to open push channel", "err", err)
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess.AttachChannel(ch)
	defer sess.DetachChannel(ch)

	log.Info("push channel opened", "session_id", sess.ID)
	_ = ch.Serve(ctx, sess.ID, h.Heartbeat)
	log.Info("push channel closed", "session_id", sess.ID)
}
