package openai

import (
	"github.com/mirrorme/mirrorme/genai/llm"
)

// ToRequest converts a generic generate request to an OpenAI API request.
func ToRequest(request *llm.GenerateRequest) *Request {
	req := &Request{}
	if request.Options != nil {
		if request.Options.Model != "" {
			req.Model = request.Options.Model
		}
		if request.Options.MaxTokens > 0 {
			req.MaxTokens = request.Options.MaxTokens
		}
		if request.Options.TopP > 0 {
			req.TopP = request.Options.TopP
		}
		// Set temperature only when explicitly specified (>0)
		if request.Options.Temperature > 0 {
			temperature := request.Options.Temperature
			req.Temperature = &temperature
		}
		if request.Options.N > 0 {
			req.N = request.Options.N
		}
		if len(request.Options.Tools) > 0 {
			req.Tools = make([]Tool, len(request.Options.Tools))
			for i, tool := range request.Options.Tools {
				def := tool.Definition
				def.Normalize() // ensure provider-agnostic, valid JSON schema shapes
				req.Tools[i] = Tool{
					Type: "function",
					Function: ToolDefinition{
						Name:        def.Name,
						Description: def.Description,
						Parameters:  def.Parameters,
						Required:    def.Required,
					},
				}
			}
		}
		if request.Options.ToolChoice != nil {
			switch request.Options.ToolChoice.Type {
			case "auto":
				req.ToolChoice = "auto"
			case "none":
				req.ToolChoice = "none"
			case "function":
				if request.Options.ToolChoice.Function != nil {
					req.ToolChoice = map[string]interface{}{
						"type": "function",
						"function": map[string]string{
							"name": request.Options.ToolChoice.Function.Name,
						},
					}
				}
			}
		}
	}

	req.Messages = make([]Message, 0, len(request.Messages))
	for _, message := range request.Messages {
		req.Messages = append(req.Messages, toAPIMessage(message))
	}
	return req
}

func toAPIMessage(message llm.Message) Message {
	ret := Message{
		Role:       message.Role.String(),
		Content:    message.Content,
		Name:       message.Name,
		ToolCallId: message.ToolCallId,
	}
	for _, call := range message.ToolCalls {
		ret.ToolCalls = append(ret.ToolCalls, ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return ret
}

// ToLLMResponse converts an OpenAI API response to a generic generate response.
func ToLLMResponse(response *Response) *llm.GenerateResponse {
	ret := &llm.GenerateResponse{Model: response.Model}
	for _, choice := range response.Choices {
		message := llm.Message{
			Role:       llm.MessageRole(choice.Message.Role),
			Content:    choice.Message.Content,
			Name:       choice.Message.Name,
			ToolCallId: choice.Message.ToolCallId,
		}
		for _, call := range choice.Message.ToolCalls {
			toolCall := llm.ToolCall{
				ID:       call.ID,
				Name:     call.Function.Name,
				Type:     call.Type,
				Function: FunctionCallToLLM(call.Function),
			}
			toolCall.Arguments = toolCall.Args()
			message.ToolCalls = append(message.ToolCalls, toolCall)
		}
		ret.Choices = append(ret.Choices, llm.Choice{
			Index:        choice.Index,
			Message:      message,
			FinishReason: choice.FinishReason,
		})
	}
	if response.Usage.TotalTokens > 0 {
		ret.Usage = &llm.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}
	return ret
}

// FunctionCallToLLM converts an API function call payload.
func FunctionCallToLLM(call FunctionCall) llm.FunctionCall {
	return llm.FunctionCall{Name: call.Name, Arguments: call.Arguments}
}
