// Package conversation drives a bounded model/tool round-trip loop over a
// chat history.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mirrorme/mirrorme/genai/llm"
	"github.com/mirrorme/mirrorme/genai/tool"
)

// Model generates a chat completion for a request.
type Model interface {
	Generate(ctx context.Context, request *llm.GenerateRequest) (*llm.GenerateResponse, error)
}

// State identifies the loop's position in its lifecycle.
type State string

const (
	StateRunning        State = "running"
	StateAwaitingModel  State = "awaitingModel"
	StateExecutingTools State = "executingTools"
	StateStopped        State = "stopped"
)

// StopReason explains why the loop stopped.
type StopReason string

const (
	// StopNoMoreToolCalls means the model answered without requesting tools.
	StopNoMoreToolCalls StopReason = "noMoreToolCalls"
	// StopStepBudgetExhausted means the round-trip budget ran out; partial
	// text, possibly empty, is still returned.
	StopStepBudgetExhausted StopReason = "stepBudgetExhausted"
)

// DefaultMaxSteps bounds model/tool round trips per turn.
const DefaultMaxSteps = 10

// ToolExecution records one tool call and its outcome within a step.
type ToolExecution struct {
	Call    llm.ToolCall
	Result  *tool.Result
	Content string
	IsError bool
}

// Step records one model response and the tool executions it triggered.
type Step struct {
	Response   *llm.GenerateResponse
	Executions []ToolExecution
}

// Execution is the outcome of a full loop run.
type Execution struct {
	Steps      []Step
	Messages   []llm.Message
	Text       string
	StopReason StopReason
}

// Executions flattens tool executions across all steps in order.
func (e *Execution) Executions() []ToolExecution {
	var ret []ToolExecution
	for i := range e.Steps {
		ret = append(ret, e.Steps[i].Executions...)
	}
	return ret
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxSteps overrides the round-trip budget.
func WithMaxSteps(maxSteps int) Option {
	return func(l *Loop) {
		if maxSteps > 0 {
			l.maxSteps = maxSteps
		}
	}
}

// WithOptions sets base generation options (model, temperature, limits).
func WithOptions(options *llm.Options) Option {
	return func(l *Loop) { l.options = options }
}

// Loop orchestrates a conversation turn against a model and a tool set.
type Loop struct {
	model    Model
	handlers map[string]tool.Handler
	tools    []llm.Tool
	options  *llm.Options
	maxSteps int
	state    State
}

// New creates a loop over the supplied model and tool entries.
func New(model Model, entries []tool.Entry, options ...Option) *Loop {
	ret := &Loop{
		model:    model,
		handlers: make(map[string]tool.Handler, len(entries)),
		tools:    tool.Definitions(entries),
		maxSteps: DefaultMaxSteps,
		state:    StateRunning,
	}
	for _, entry := range entries {
		ret.handlers[entry.Definition.Name] = entry.Handler
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State { return l.state }

// Run drives the loop until the model stops calling tools or the step budget
// is exhausted. The returned execution always carries the final text, which
// may be empty on budget exhaustion.
func (l *Loop) Run(ctx context.Context, messages []llm.Message) (*Execution, error) {
	execution := &Execution{Messages: messages}
	lastText := ""
	for step := 0; step < l.maxSteps; step++ {
		l.state = StateAwaitingModel
		response, err := l.model.Generate(ctx, &llm.GenerateRequest{
			Messages: execution.Messages,
			Options:  l.generateOptions(),
		})
		if err != nil {
			l.state = StateStopped
			return nil, fmt.Errorf("model generation failed: %w", err)
		}
		if len(response.Choices) == 0 {
			l.state = StateStopped
			return nil, fmt.Errorf("model returned no choices")
		}
		choice := response.Choices[0]
		execution.Messages = append(execution.Messages, choice.Message)
		current := Step{Response: response}
		if choice.Message.Content != "" {
			lastText = choice.Message.Content
		}
		if len(choice.Message.ToolCalls) == 0 {
			execution.Steps = append(execution.Steps, current)
			execution.Text = choice.Message.Content
			execution.StopReason = StopNoMoreToolCalls
			l.state = StateStopped
			return execution, nil
		}

		l.state = StateExecutingTools
		for _, call := range choice.Message.ToolCalls {
			executed := l.execute(ctx, call)
			current.Executions = append(current.Executions, executed)
			execution.Messages = append(execution.Messages, llm.NewToolResultMessage(call, executed.Content))
		}
		execution.Steps = append(execution.Steps, current)
	}
	execution.Text = lastText
	execution.StopReason = StopStepBudgetExhausted
	l.state = StateStopped
	return execution, nil
}

func (l *Loop) execute(ctx context.Context, call llm.ToolCall) ToolExecution {
	handler, ok := l.handlers[call.Name]
	if !ok {
		return ToolExecution{
			Call:    call,
			Content: fmt.Sprintf("unknown tool: %s", call.Name),
			IsError: true,
		}
	}
	result, err := handler(ctx, call.Args())
	if err != nil {
		return ToolExecution{
			Call:    call,
			Content: fmt.Sprintf("tool %s failed: %v", call.Name, err),
			IsError: true,
		}
	}
	return ToolExecution{
		Call:    call,
		Result:  result,
		Content: resultContent(result),
		IsError: result.IsError,
	}
}

func resultContent(result *tool.Result) string {
	if result.Text != "" {
		return result.Text
	}
	if len(result.Structured) > 0 {
		data, err := json.Marshal(result.Structured)
		if err == nil {
			return string(data)
		}
	}
	return ""
}

func (l *Loop) generateOptions() *llm.Options {
	options := l.options.Clone()
	if len(l.tools) > 0 {
		options.Tools = l.tools
		if options.ToolChoice == nil {
			choice := llm.NewAutoToolChoice()
			options.ToolChoice = &choice
		}
	}
	return options
}
