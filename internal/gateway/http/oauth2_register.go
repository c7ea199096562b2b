package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/toolgate/internal/gateway/service"
	"github.com/aussiebroadwan/toolgate/pkg/httpx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// RegisterHandler serves POST /register, RFC 7591 dynamic client
// registration. Every request creates a fresh confidential client; the
// plaintext secret appears only in this response.
type RegisterHandler struct {
	ClientService *service.ClientService
}

type registerRequest struct {
	ClientName   string   `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
	Scope        string   `json:"scope"`
}

type registerResponse struct {
	ClientID      string   `json:"client_id"`
	ClientSecret  string   `json:"client_secret"`
	ClientName    string   `json:"client_name,omitempty"`
	RedirectURIs  []string `json:"redirect_uris"`
	GrantTypes    []string `json:"grant_types"`
	ResponseTypes []string `json:"response_types"`
	Scope         string   `json:"scope,omitempty"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = "unnamed client"
	}

	scopes := httpx.ParseSpaceDelimitedFields(req.Scope)

	client, secret, err := h.ClientService.RegisterClient(ctx, name, req.RedirectURIs, scopes)
	if err != nil {
		log.Error("client registration failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	redirectURIs := client.RedirectURIs
	if redirectURIs == nil {
		redirectURIs = []string{}
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		ClientID:      client.ID,
		ClientSecret:  secret,
		ClientName:    client.Name,
		RedirectURIs:  redirectURIs,
		GrantTypes:    []string{"authorization_code"},
		ResponseTypes: []string{"code"},
		Scope:         strings.Join(client.Scopes, " "),
	})
}
