package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// ServerInfo identifies the gateway in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HandlerFunc handles one protocol method. It returns either a result or a
// protocol error; transport concerns stay out of it.
type HandlerFunc func(ctx context.Context, sess *Session, req *Request) (any, *Error)

// Dispatcher routes protocol messages through a method-keyed handler table.
type Dispatcher struct {
	backend     ToolBackend
	callTimeout time.Duration
	info        ServerInfo
	handlers    map[string]HandlerFunc
}

// NewDispatcher builds a dispatcher over the given backend. callTimeout
// bounds every tools/call (default 30s).
func NewDispatcher(backend ToolBackend, info ServerInfo, callTimeout time.Duration) *Dispatcher {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		backend:     backend,
		callTimeout: callTimeout,
		info:        info,
	}
	d.handlers = map[string]HandlerFunc{
		"initialize":                d.handleInitialize,
		"ping":                      d.handlePing,
		"tools/list":                d.handleToolsList,
		"tools/call":                d.handleToolsCall,
		"resources/list":            d.handleResourcesList,
		"resources/read":            d.handleResourcesRead,
		"prompts/list":              d.handlePromptsList,
		"prompts/get":               d.handlePromptsGet,
		"notifications/initialized": d.handleInitialized,
	}
	return d
}

// Dispatch executes one protocol message against a session. Requests always
// produce exactly one response frame; notifications never produce any, even
// when they fail.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *Session, req *Request) *Response {
	log := slogx.FromContext(ctx)
	notification := req.IsNotification()

	if !req.Valid() {
		if notification {
			return nil
		}
		return NewErrorResponse(req.ID, CodeInvalidRequest, "invalid request", nil)
	}

	sess.Touch()

	handler, ok := d.handlers[req.Method]
	if !ok {
		if notification {
			log.Debug("dropping unknown notification", "method", req.Method)
			return nil
		}
		return NewErrorResponse(req.ID, CodeMethodNotFound, "method not found", map[string]string{
			"method": req.Method,
		})
	}

	result, rpcErr := handler(ctx, sess, req)
	if notification {
		return nil
	}
	if rpcErr != nil {
		return NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return NewResponse(req.ID, result)
}

func (d *Dispatcher) handleInitialize(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	sess.MarkInitialized()

	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		"serverInfo": d.info,
	}, nil
}

func (d *Dispatcher) handlePing(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	return map[string]any{}, nil
}

func (d *Dispatcher) handleToolsList(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	tools, err := d.backend.ListTools(ctx)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: "failed to list tools"}
	}
	if tools == nil {
		tools = []Tool{}
	}
	return map[string]any{"tools": tools}, nil
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	log := slogx.FromContext(ctx)

	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid tool call parameters"}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	result, err := d.backend.CallTool(callCtx, params.Name, params.Arguments)
	switch {
	case errors.Is(err, ErrUnknownTool):
		return nil, &Error{Code: CodeInvalidParams, Message: "unknown tool", Data: map[string]string{
			"name": params.Name,
		}}
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("tool call timed out", "tool", params.Name, "timeout", d.callTimeout)
		return nil, &Error{Code: CodeInternalError, Message: "tool call timed out"}
	case err != nil:
		log.Error("tool call failed", "tool", params.Name, "error", err)
		return nil, &Error{Code: CodeInternalError, Message: "tool call failed"}
	}

	return result, nil
}

func (d *Dispatcher) handleResourcesList(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	return map[string]any{"resources": []any{}}, nil
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid resource read parameters"}
	}
	// The gateway publishes no resources; any URI is unknown.
	return nil, &Error{Code: CodeInvalidParams, Message: "unknown resource", Data: map[string]string{
		"uri": params.URI,
	}}
}

func (d *Dispatcher) handlePromptsList(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	return map[string]any{"prompts": []any{}}, nil
}

func (d *Dispatcher) handlePromptsGet(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid prompt parameters"}
	}
	return nil, &Error{Code: CodeInvalidParams, Message: "unknown prompt", Data: map[string]string{
		"name": params.Name,
	}}
}

func (d *Dispatcher) handleInitialized(ctx context.Context, sess *Session, req *Request) (any, *Error) {
	// Client acknowledgement of the initialize handshake. Nothing to do;
	// notifications never produce a reply.
	return nil, nil
}
