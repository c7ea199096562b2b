package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/toolgate/internal/gateway/service"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// IntrospectHandler serves POST /introspect per RFC 7662. Unknown, expired
// and revoked tokens all come back as {"active": false}.
type IntrospectHandler struct {
	TokenService *service.TokenService
}

func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.TokenService.IntrospectToken(ctx, token)
	if err != nil {
		log.Error("token introspection failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}
