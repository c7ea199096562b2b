package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/mcp"
)

// defaultBackend is the built-in catalog used when no upstream tool host is
// configured. It is deliberately small; real deployments point
// GATEWAY_BACKEND_URL at a tool host.
func defaultBackend() *mcp.StaticBackend {
	b := mcp.NewStaticBackend()

	b.Register(mcp.Tool{
		Name:        "echo",
		Description: "Echoes the provided message back to the caller",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "Text to echo back",
				},
			},
			"required": []string{"message"},
		},
	}, func(ctx context.Context, args map[string]any) (*mcp.ToolResult, error) {
		message, ok := args["message"].(string)
		if !ok {
			return mcp.ErrorResult("message must be a string"), nil
		}
		return mcp.TextResult(message), nil
	})

	b.Register(mcp.Tool{
		Name:        "current_time",
		Description: "Returns the gateway's current time in RFC 3339 format",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, func(ctx context.Context, args map[string]any) (*mcp.ToolResult, error) {
		return mcp.TextResult(time.Now().Format(time.RFC3339)), nil
	})

	b.Register(mcp.Tool{
		Name:        "add",
		Description: "Adds two numbers",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
	}, func(ctx context.Context, args map[string]any) (*mcp.ToolResult, error) {
		a, aok := args["a"].(float64)
		b, bok := args["b"].(float64)
		if !aok || !bok {
			return mcp.ErrorResult("a and b must be numbers"), nil
		}
		return mcp.TextResult(fmt.Sprintf("%g", a+b)), nil
	})

	return b
}
