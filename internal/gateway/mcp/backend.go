package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/aussiebroadwan/toolgate/pkg/idx"
)

// ErrUnknownTool is returned by backends when the named tool does not exist.
var ErrUnknownTool = errors.New("mcp: unknown tool")

// Tool describes a callable tool in the catalog.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolContent is one piece of a tool result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the outcome of a tool call. IsError marks a tool-level
// failure that still travels as a successful protocol response.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// TextResult wraps plain text in the standard single-content shape.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ToolContent{{Type: "text", Text: text}}}
}

// ErrorResult wraps an error message as a tool-level failure.
func ErrorResult(text string) *ToolResult {
	return &ToolResult{Content: []ToolContent{{Type: "text", Text: text}}, IsError: true}
}

// ToolBackend serves the tool catalog and executes calls. The dispatcher
// bounds every CallTool with a timeout.
type ToolBackend interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error)
}

// ToolFunc executes a single tool.
type ToolFunc func(ctx context.Context, args map[string]any) (*ToolResult, error)

// StaticBackend is an in-process backend with a fixed registered catalog.
type StaticBackend struct {
	mu    sync.RWMutex
	tools []Tool
	funcs map[string]ToolFunc
}

func NewStaticBackend() *StaticBackend {
	return &StaticBackend{funcs: make(map[string]ToolFunc)}
}

// Register adds a tool to the catalog. Re-registering a name replaces its
// handler but keeps the original catalog position.
func (b *StaticBackend) Register(tool Tool, fn ToolFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.funcs[tool.Name]; !exists {
		b.tools = append(b.tools, tool)
	}
	b.funcs[tool.Name] = fn
}

func (b *StaticBackend) ListTools(ctx context.Context) ([]Tool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Tool, len(b.tools))
	copy(out, b.tools)
	return out, nil
}

func (b *StaticBackend) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	b.mu.RLock()
	fn, ok := b.funcs[name]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownTool
	}
	return fn(ctx, args)
}

// HTTPBackend forwards tools/list and tools/call to an upstream JSON-RPC
// endpoint. Used when the gateway fronts a remote tool host instead of the
// built-in catalog.
type HTTPBackend struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPBackend(endpoint string) *HTTPBackend {
	return &HTTPBackend{
		Endpoint: endpoint,
		Client:   http.DefaultClient,
	}
}

func (b *HTTPBackend) ListTools(ctx context.Context) ([]Tool, error) {
	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := b.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

func (b *HTTPBackend) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}
	var result ToolResult
	if err := b.call(ctx, "tools/call", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *HTTPBackend) call(ctx context.Context, method string, params, result any) error {
	id, err := json.Marshal(idx.New().String())
	if err != nil {
		return err
	}

	req := Request{JSONRPC: Version, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = raw
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mcp: upstream returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var frame struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return fmt.Errorf("mcp: invalid upstream response: %w", err)
	}
	if frame.Error != nil {
		return frame.Error
	}
	return json.Unmarshal(frame.Result, result)
}
