package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/aussiebroadwan/toolgate/internal/gateway/mcp"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// SessionHeader carries the protocol session id on both requests and
// responses.
const SessionHeader = "Mcp-Session-Id"

// RPCHandler serves POST /mcp, the synchronous protocol channel. Each body is
// one JSON-RPC message. Results are routed to the session's live push channel
// when one is attached; the sync reply then just acknowledges delivery.
// Protocol failures always travel as error frames, never transport errors.
type RPCHandler struct {
	Dispatcher *mcp.Dispatcher
	Sessions   *mcp.SessionRegistry
}

func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sess := h.Sessions.Resolve(r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, sess.ID)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpx.WriteJSON(w, http.StatusOK,
			mcp.NewErrorResponse(nil, mcp.CodeParseError, "failed to read request body", nil))
		return
	}

	var req mcp.Request
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteJSON(w, http.StatusOK,
			mcp.NewErrorResponse(nil, mcp.CodeParseError, "parse error", nil))
		return
	}

	resp := h.Dispatcher.Dispatch(ctx, sess, &req)

	// Notifications never produce a reply frame; the empty 200 only confirms
	// receipt.
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	// A live push channel takes delivery; the sync reply becomes an ack.
	if ch := sess.Channel(); ch != nil {
		if err := ch.SendResponse(resp); err == nil {
			httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
				"status":   "accepted",
				"delivery": "sse",
			})
			return
		}
		log.Debug("push delivery failed, falling back to sync response", "session_id", sess.ID)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
