// Package tools implements the paid actions exposed by the tool server.
package tools

import (
	"context"

	mcpschema "github.com/viant/mcp-protocol/schema"
)

// PaidTool is one payment-gated action with its descriptor and price.
type PaidTool struct {
	Name        string
	Description string
	PriceUSD    float64
	InputSchema mcpschema.ToolInputSchema
	Execute     func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)
}

func stringArg(args map[string]interface{}, key string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return ""
}

func numberArg(args map[string]interface{}, key string, fallback float64) float64 {
	switch value := args[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	}
	return fallback
}

func boolArg(args map[string]interface{}, key string, fallback bool) bool {
	if value, ok := args[key].(bool); ok {
		return value
	}
	return fallback
}

func property(kind, description string) map[string]interface{} {
	return map[string]interface{}{"type": kind, "description": description}
}
