package llm

import (
	"encoding/json"

	"github.com/google/uuid"
)

// MessageRole represents the role of the message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

func (m MessageRole) String() string { return string(m) }

// Message is a provider-neutral chat message.
type Message struct {
	// Role of the sender (user, assistant, system, tool).
	Role MessageRole `json:"role"`

	// Name is the optional sender/tool name.
	Name string `json:"name,omitempty"`

	// Content is the textual payload.
	Content string `json:"content,omitempty"`

	// ToolCalls represents structured tool invocations requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallId correlates a tool-role message with the call it answers.
	ToolCallId string `json:"tool_call_id,omitempty"`
}

// FunctionCall carries the raw, provider-encoded invocation payload.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a structured representation of a tool invocation.
type ToolCall struct {
	// ID is a unique identifier for the tool call within a step.
	ID string `json:"id,omitempty"`

	// Name is the name of the tool to call.
	Name string `json:"name"`

	// Arguments contains the decoded arguments to pass to the tool.
	Arguments map[string]interface{} `json:"arguments"`

	// Function keeps the provider-level payload (raw JSON arguments).
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function,omitempty"`
}

// Args returns decoded arguments, falling back to the raw function payload
// when the structured map is absent.
func (c *ToolCall) Args() map[string]interface{} {
	if c.Arguments != nil {
		return c.Arguments
	}
	args := map[string]interface{}{}
	if c.Function.Arguments != "" {
		_ = json.Unmarshal([]byte(c.Function.Arguments), &args)
	}
	return args
}

// GenerateRequest represents a request to a chat-based LLM.
type GenerateRequest struct {
	// Messages is the list of messages in the conversation.
	Messages []Message `json:"messages"`

	// Options contains additional options for the request.
	Options *Options `json:"options,omitempty"`
}

// GenerateResponse represents a response from a chat-based LLM.
type GenerateResponse struct {
	// Choices contains the generated responses.
	Choices []Choice `json:"choices"`

	// Usage contains token usage information.
	Usage *Usage `json:"usage,omitempty"`
	Model string `json:"model,omitempty"`
}

// Choice represents a single response choice from a chat-based LLM.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUserMessage creates a new message with the "user" role.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a new message with the "system" role.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates a new message with the "assistant" role.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolResultMessage creates a tool-role message answering the given call.
func NewToolResultMessage(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		Name:       call.Name,
		Content:    content,
		ToolCallId: call.ID,
	}
}

// NewToolCall creates a ToolCall with the given name and decoded arguments.
// An ID is generated when empty and the raw function payload is populated.
func NewToolCall(id, name string, args map[string]interface{}) ToolCall {
	if id == "" {
		id = uuid.NewString()
	}
	data, _ := json.Marshal(args)
	return ToolCall{
		ID:        id,
		Name:      name,
		Arguments: args,
		Type:      "function",
		Function:  FunctionCall{Name: name, Arguments: string(data)},
	}
}

// NewAssistantMessageWithToolCalls creates an assistant message that carries tool calls.
func NewAssistantMessageWithToolCalls(toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: toolCalls}
}
