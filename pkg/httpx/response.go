package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON writes v as a JSON body with the given status. Responses are
// marked uncacheable since most of what this service returns is credentials.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache marks the response uncacheable. RFC 6749 requires this on any
// response carrying tokens or codes.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ParseSpaceDelimitedFields splits an OAuth-style space-delimited value
// (scope lists and the like) into its fields. Blank input yields nil.
func ParseSpaceDelimitedFields(s string) []string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields
	}
	return nil
}
