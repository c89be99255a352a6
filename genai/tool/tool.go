// Package tool defines the executable tool abstraction shared by the
// conversation loop, the payment gate and the MCP registry adapter.
package tool

import (
	"context"

	"github.com/mirrorme/mirrorme/genai/llm"
)

// Result is the outcome of a single tool execution.
type Result struct {
	// IsError marks a tool-reported failure. It is surfaced to the model as
	// regular content, never as a transport error.
	IsError bool

	// Text is the textual payload of the result.
	Text string

	// Structured carries the structured-content channel of the result, when
	// the tool returned one.
	Structured map[string]interface{}
}

// Handler executes a tool with decoded arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (*Result, error)

// Entry pairs a tool definition with its executable handler.
type Entry struct {
	Definition llm.ToolDefinition
	Handler    Handler
}

// Definitions extracts the definitions from a set of entries.
func Definitions(entries []Entry) []llm.Tool {
	ret := make([]llm.Tool, 0, len(entries))
	for _, entry := range entries {
		def := entry.Definition
		def.Normalize()
		ret = append(ret, llm.NewFunctionTool(def))
	}
	return ret
}
