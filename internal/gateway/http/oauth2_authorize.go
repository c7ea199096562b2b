package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/toolgate/internal/gateway/service"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// AuthorizeHandler serves GET /authorize. There is no interactive consent
// step; a valid request immediately redirects back with a fresh code. The
// state parameter passes through untouched.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	q := r.URL.Query()

	resp, err := h.AuthorizeService.IssueAuthorizationCode(ctx, service.AuthorizeRequest{
		ResponseType: q.Get("response_type"),
		ClientID:     q.Get("client_id"),
		RedirectURI:  q.Get("redirect_uri"),
		Scope:        httpx.ParseSpaceDelimitedFields(q.Get("scope")),
		State:        q.Get("state"),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.ErrInvalidRequest.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			httpx.ErrInvalidClient.WriteError(w)
		default:
			log.Error("authorization request failed", "err", err)
			httpx.ErrServerError.WriteError(w)
		}
		return
	}

	location, err := buildRedirect(resp.RedirectURI, resp.Code, resp.State)
	if err != nil {
		log.Error("failed to build redirect", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, location, http.StatusFound)
}

func buildRedirect(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
