// Package mcp adapts an MCP tool server into the executable tool entries the
// conversation loop consumes.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mirrorme/mirrorme/genai/llm"
	"github.com/mirrorme/mirrorme/genai/tool"
	"github.com/viant/mcp"
	mcpschema "github.com/viant/mcp-protocol/schema"
	mcpclient "github.com/viant/mcp/client"
)

// Session is a per-turn MCP client connection with its discovered tool set.
type Session struct {
	client  mcpclient.Interface
	entries []tool.Entry
}

// Connect dials an MCP endpoint over streamable HTTP, initializes the
// protocol session and discovers the available tools. An empty tool list is
// not an error.
func Connect(ctx context.Context, name, url string) (*Session, error) {
	options := &mcp.ClientOptions{
		Name: name,
		Transport: mcp.ClientTransport{
			Type: "streaming",
			ClientTransportHTTP: mcp.ClientTransportHTTP{
				URL: url,
			},
		},
	}
	options.Init()
	client, err := mcp.NewClient(nil, options)
	if err != nil {
		return nil, fmt.Errorf("mcp client: %w", err)
	}
	if _, err := client.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("mcp init: %w", err)
	}
	session := &Session{client: client}
	if err := session.discover(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Session) discover(ctx context.Context) error {
	var cursor *string
	for {
		list, err := s.client.ListTools(ctx, cursor)
		if err != nil {
			return fmt.Errorf("list tools: %w", err)
		}
		for _, td := range list.Tools {
			def := llm.ToolDefinitionFromMcpTool(&td)
			toolCopy := td
			handler := func(ctx context.Context, args map[string]interface{}) (*tool.Result, error) {
				return s.call(ctx, toolCopy.Name, args)
			}
			s.entries = append(s.entries, tool.Entry{Definition: *def, Handler: handler})
		}
		if list.NextCursor == nil || *list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}
	return nil
}

func (s *Session) call(ctx context.Context, name string, args map[string]interface{}) (*tool.Result, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	params := &mcpschema.CallToolRequestParams{
		Name:      name,
		Arguments: mcpschema.CallToolRequestParamsArguments(args),
	}
	res, err := s.client.CallTool(ctx, params)
	if err != nil {
		return nil, err
	}
	return resultFromCallTool(res), nil
}

// resultFromCallTool flattens an MCP call result into the loop's result
// shape. A single text element becomes the text payload; multi-part content
// is carried as its JSON encoding. The structured-content channel passes
// through untouched.
func resultFromCallTool(res *mcpschema.CallToolResult) *tool.Result {
	ret := &tool.Result{Structured: res.StructuredContent}
	if res.IsError != nil {
		ret.IsError = *res.IsError
	}
	if len(res.Content) == 1 && res.Content[0].Type == "text" {
		ret.Text = res.Content[0].Text
	} else if len(res.Content) > 0 {
		data, _ := json.Marshal(res.Content)
		ret.Text = string(data)
	}
	return ret
}

// Tools returns the discovered tool entries.
func (s *Session) Tools() []tool.Entry { return s.entries }

// Close releases the session. The underlying transport exposes no close
// handle, so teardown drops the reference.
func (s *Session) Close() {
	s.client = nil
	s.entries = nil
}
