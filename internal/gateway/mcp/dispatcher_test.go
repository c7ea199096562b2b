package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testBackend() *StaticBackend {
	b := NewStaticBackend()
	b.Register(Tool{
		Name:        "echo",
		Description: "echoes its message argument",
		InputSchema: map[string]any{"type": "object"},
	}, func(ctx context.Context, args map[string]any) (*ToolResult, error) {
		message, _ := args["message"].(string)
		return TextResult(message), nil
	})
	b.Register(Tool{
		Name:        "slow",
		InputSchema: map[string]any{"type": "object"},
	}, func(ctx context.Context, args map[string]any) (*ToolResult, error) {
		select {
		case <-time.After(5 * time.Second):
			return TextResult("done"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	return b
}

func newTestDispatcher(timeout time.Duration) *Dispatcher {
	return NewDispatcher(testBackend(), ServerInfo{Name: "test-gateway", Version: "test"}, timeout)
}

func newSession() *Session {
	return &Session{ID: "test-session", CreatedAt: time.Now()}
}

func request(t *testing.T, id, method string, params any) *Request {
	t.Helper()

	req := &Request{JSONRPC: Version, Method: method}
	if id != "" {
		raw, err := json.Marshal(id)
		require.NoError(t, err)
		req.ID = raw
	}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		req.Params = raw
	}
	return req
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(time.Second)

	t.Run("initialize marks the session and reports server info", func(t *testing.T) {
		sess := newSession()
		resp := d.Dispatch(ctx, sess, request(t, "1", "initialize", nil))

		require.NotNil(t, resp)
		require.Nil(t, resp.Error)
		require.True(t, sess.Initialized())

		result, ok := resp.Result.(map[string]any)
		require.True(t, ok)
		require.Equal(t, ProtocolVersion, result["protocolVersion"])
		require.Equal(t, ServerInfo{Name: "test-gateway", Version: "test"}, result["serverInfo"])
	})

	t.Run("ping returns an empty result", func(t *testing.T) {
		resp := d.Dispatch(ctx, newSession(), request(t, "2", "ping", nil))
		require.NotNil(t, resp)
		require.Nil(t, resp.Error)
	})

	t.Run("tools/list returns the catalog", func(t *testing.T) {
		resp := d.Dispatch(ctx, newSession(), request(t, "3", "tools/list", nil))
		require.Nil(t, resp.Error)

		result := resp.Result.(map[string]any)
		tools := result["tools"].([]Tool)
		require.Len(t, tools, 2)
		require.Equal(t, "echo", tools[0].Name)
	})

	t.Run("tools/call forwards to the backend", func(t *testing.T) {
		resp := d.Dispatch(ctx, newSession(), request(t, "4", "tools/call", map[string]any{
			"name":      "echo",
			"arguments": map[string]any{"message": "hello"},
		}))
		require.Nil(t, resp.Error)

		result := resp.Result.(*ToolResult)
		require.Len(t, result.Content, 1)
		require.Equal(t, "hello", result.Content[0].Text)
		require.False(t, result.IsError)
	})

	t.Run("tools/call with malformed params is invalid params", func(t *testing.T) {
		resp := d.Dispatch(ctx, newSession(), request(t, "5", "tools/call", map[string]any{
			"arguments": map[string]any{},
		}))
		require.NotNil(t, resp.Error)
		require.Equal(t, CodeInvalidParams, resp.Error.Code)
	})

	t.Run("unknown tool is invalid params", func(t *testing.T) {
		resp := d.Dispatch(ctx, newSession(), request(t, "6", "tools/call", map[string]any{
			"name": "missing",
		}))
		require.NotNil(t, resp.Error)
		require.Equal(t, CodeInvalidParams, resp.Error.Code)
	})

	t.Run("backend timeout becomes an internal error frame", func(t *testing.T) {
		fast := newTestDispatcher(50 * time.Millisecond)
		resp := fast.Dispatch(ctx, newSession(), request(t, "7", "tools/call", map[string]any{
			"name": "slow",
		}))
		require.NotNil(t, resp.Error)
		require.Equal(t, CodeInternalError, resp.Error.Code)
	})

	t.Run("resources and prompts catalogs are empty", func(t *testing.T) {
		resp := d.Dispatch(ctx, newSession(), request(t, "8", "resources/list", nil))
		require.Nil(t, resp.Error)
		require.Empty(t, resp.Result.(map[string]any)["resources"])

		resp = d.Dispatch(ctx, newSession(), request(t, "9", "prompts/list", nil))
		require.Nil(t, resp.Error)
		require.Empty(t, resp.Result.(map[string]any)["prompts"])
	})

	t.Run("unknown method on a request is method not found", func(t *testing.T) {
		resp := d.Dispatch(ctx, newSession(), request(t, "10", "tools/destroy", nil))
		require.NotNil(t, resp.Error)
		require.Equal(t, CodeMethodNotFound, resp.Error.Code)
	})

	t.Run("response ids mirror the request ids", func(t *testing.T) {
		req := request(t, "id-42", "ping", nil)
		resp := d.Dispatch(ctx, newSession(), req)
		require.JSONEq(t, `"id-42"`, string(resp.ID))
	})

	t.Run("notifications never produce a reply", func(t *testing.T) {
		require.Nil(t, d.Dispatch(ctx, newSession(), request(t, "", "notifications/initialized", nil)))
		require.Nil(t, d.Dispatch(ctx, newSession(), request(t, "", "no/such/method", nil)))
		require.Nil(t, d.Dispatch(ctx, newSession(), request(t, "", "tools/call", map[string]any{
			"name": "missing",
		})))
	})

	t.Run("null id counts as a notification", func(t *testing.T) {
		req := &Request{JSONRPC: Version, ID: json.RawMessage("null"), Method: "ping"}
		require.True(t, req.IsNotification())
		require.Nil(t, d.Dispatch(ctx, newSession(), req))
	})

	t.Run("malformed request frame yields an invalid request error", func(t *testing.T) {
		req := &Request{JSONRPC: "1.0", ID: json.RawMessage(`"11"`), Method: "ping"}
		resp := d.Dispatch(ctx, newSession(), req)
		require.NotNil(t, resp.Error)
		require.Equal(t, CodeInvalidRequest, resp.Error.Code)
	})
}
