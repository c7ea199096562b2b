package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/toolgate/internal/gateway/service"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// RevokeHandler serves POST /revoke following the RFC 7009 spec. All tokens
// even if invalid/unknown return 200 OK to prevent token scanning attacks.
type RevokeHandler struct {
	TokenService *service.TokenService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		httpx.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		httpx.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	// 3. Revoke the token. Per RFC 7009 the server responds 200 OK even if
	// the token is invalid or unknown.
	if err := h.TokenService.RevokeToken(ctx, token); err != nil {
		log.Warn("token revocation failed", "err", err)
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
