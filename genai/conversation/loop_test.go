package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirrorme/mirrorme/genai/llm"
	"github.com/mirrorme/mirrorme/genai/tool"
)

// scriptedModel returns canned responses in order, then repeats the last one.
type scriptedModel struct {
	responses []*llm.GenerateResponse
	calls     int
}

func (m *scriptedModel) Generate(_ context.Context, _ *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	index := m.calls
	if index >= len(m.responses) {
		index = len(m.responses) - 1
	}
	m.calls++
	return m.responses[index], nil
}

func textResponse(text string) *llm.GenerateResponse {
	return &llm.GenerateResponse{
		Choices: []llm.Choice{{Message: llm.NewAssistantMessage(text), FinishReason: "stop"}},
	}
}

func toolCallResponse(name string, args map[string]interface{}) *llm.GenerateResponse {
	call := llm.NewToolCall("", name, args)
	return &llm.GenerateResponse{
		Choices: []llm.Choice{{Message: llm.NewAssistantMessageWithToolCalls(call), FinishReason: "tool_calls"}},
	}
}

func echoEntry(name string) tool.Entry {
	return tool.Entry{
		Definition: llm.ToolDefinition{Name: name},
		Handler: func(_ context.Context, args map[string]interface{}) (*tool.Result, error) {
			return &tool.Result{Text: "ok", Structured: map[string]interface{}{"args": args}}, nil
		},
	}
}

func TestLoopStopsWhenNoToolCalls(t *testing.T) {
	model := &scriptedModel{responses: []*llm.GenerateResponse{textResponse("hello there")}}
	loop := New(model, []tool.Entry{echoEntry("book_meeting")})

	execution, err := loop.Run(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	assert.Nil(t, err)
	assert.EqualValues(t, "hello there", execution.Text)
	assert.EqualValues(t, StopNoMoreToolCalls, execution.StopReason)
	assert.EqualValues(t, 1, model.calls)
	assert.EqualValues(t, StateStopped, loop.State())
}

func TestLoopFeedsToolResultsBack(t *testing.T) {
	model := &scriptedModel{responses: []*llm.GenerateResponse{
		toolCallResponse("book_meeting", map[string]interface{}{"date": "2026-09-01"}),
		textResponse("booked"),
	}}
	loop := New(model, []tool.Entry{echoEntry("book_meeting")})

	execution, err := loop.Run(context.Background(), []llm.Message{llm.NewUserMessage("book it")})
	assert.Nil(t, err)
	assert.EqualValues(t, "booked", execution.Text)
	assert.EqualValues(t, 2, len(execution.Steps))

	executed := execution.Executions()
	assert.EqualValues(t, 1, len(executed))
	assert.EqualValues(t, "book_meeting", executed[0].Call.Name)
	assert.EqualValues(t, "ok", executed[0].Content)
	assert.False(t, executed[0].IsError)

	// History: user, assistant tool call, tool result, assistant text.
	assert.EqualValues(t, 4, len(execution.Messages))
	assert.EqualValues(t, llm.RoleTool, execution.Messages[2].Role)
}

func TestLoopStepBudgetExhausted(t *testing.T) {
	// The model always asks for another tool call; the loop must stop at the
	// budget with whatever text is available, not an error.
	model := &scriptedModel{responses: []*llm.GenerateResponse{
		toolCallResponse("book_meeting", nil),
	}}
	loop := New(model, []tool.Entry{echoEntry("book_meeting")})

	execution, err := loop.Run(context.Background(), []llm.Message{llm.NewUserMessage("loop forever")})
	assert.Nil(t, err)
	assert.EqualValues(t, StopStepBudgetExhausted, execution.StopReason)
	assert.EqualValues(t, DefaultMaxSteps, model.calls)
	assert.EqualValues(t, DefaultMaxSteps, len(execution.Steps))
	assert.EqualValues(t, "", execution.Text)
}

func TestLoopUnknownToolReportsError(t *testing.T) {
	model := &scriptedModel{responses: []*llm.GenerateResponse{
		toolCallResponse("missing_tool", nil),
		textResponse("sorry"),
	}}
	loop := New(model, []tool.Entry{echoEntry("book_meeting")})

	execution, err := loop.Run(context.Background(), []llm.Message{llm.NewUserMessage("use the tool")})
	assert.Nil(t, err)

	executed := execution.Executions()
	assert.EqualValues(t, 1, len(executed))
	assert.True(t, executed[0].IsError)
	assert.Contains(t, executed[0].Content, "unknown tool")
}

func TestLoopWithoutToolsProducesPlainText(t *testing.T) {
	model := &scriptedModel{responses: []*llm.GenerateResponse{textResponse("just text")}}
	loop := New(model, nil)

	execution, err := loop.Run(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	assert.Nil(t, err)
	assert.EqualValues(t, "just text", execution.Text)
	assert.Empty(t, execution.Executions())
}

func TestLoopMaxStepsOption(t *testing.T) {
	model := &scriptedModel{responses: []*llm.GenerateResponse{toolCallResponse("book_meeting", nil)}}
	loop := New(model, []tool.Entry{echoEntry("book_meeting")}, WithMaxSteps(3))

	execution, err := loop.Run(context.Background(), []llm.Message{llm.NewUserMessage("go")})
	assert.Nil(t, err)
	assert.EqualValues(t, 3, model.calls)
	assert.EqualValues(t, StopStepBudgetExhausted, execution.StopReason)
}
