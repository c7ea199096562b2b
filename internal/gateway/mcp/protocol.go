// Package mcp implements the gateway's tool-invocation protocol: JSON-RPC 2.0
// framing, the method dispatcher, in-memory sessions, and the SSE push channel.
package mcp

import (
	"bytes"
	"encoding/json"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// ProtocolVersion is the tool protocol revision advertised by initialize.
const ProtocolVersion = "2025-03-26"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a single JSON-RPC 2.0 message. A message without an id is a
// notification and must never produce a reply frame.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

var nullLiteral = []byte("null")

// IsNotification reports whether the message carries no id. An explicit null
// id is treated the same as an absent one.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || bytes.Equal(r.ID, nullLiteral)
}

// Valid checks the structural requirements of a request frame.
func (r *Request) Valid() bool {
	return r.JSONRPC == Version && r.Method != ""
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Response is a JSON-RPC 2.0 response frame. Exactly one of Result and Error
// is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse builds a success frame for the given request id.
func NewResponse(id json.RawMessage, result any) *Response {
	if len(id) == 0 {
		id = nullLiteral
	}
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error frame for the given request id.
func NewErrorResponse(id json.RawMessage, code int, message string, data any) *Response {
	if len(id) == 0 {
		id = nullLiteral
	}
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}
