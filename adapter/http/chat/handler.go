// Package chat implements the turn orchestrator behind POST /api/agent.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	mcpadapter "github.com/mirrorme/mirrorme/adapter/mcp"
	"github.com/mirrorme/mirrorme/genai/conversation"
	"github.com/mirrorme/mirrorme/genai/llm"
	"github.com/mirrorme/mirrorme/genai/payment"
)

const noResponseText = "No response generated"

// Request is one chat turn submitted by the client. Payment requirements
// previously quoted are resent verbatim together with confirmPayment.
type Request struct {
	Messages            json.RawMessage `json:"messages"`
	AccountAddress      string          `json:"accountAddress"`
	ConfirmPayment      bool            `json:"confirmPayment,omitempty"`
	PaymentRequirements json.RawMessage `json:"paymentRequirements,omitempty"`
}

// InboundMessage is a single history entry from the client.
type InboundMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCallReport pairs one tool call with its result for the client.
type ToolCallReport struct {
	ToolName        string                 `json:"toolName"`
	ToolCallID      string                 `json:"toolCallId"`
	Input           map[string]interface{} `json:"input"`
	Output          interface{}            `json:"output"`
	IsError         bool                   `json:"isError"`
	PaymentRequired *payment.Requirement   `json:"paymentRequired,omitempty"`
}

// Response is the turn outcome.
type Response struct {
	Text            string                `json:"text"`
	ToolCalls       []ToolCallReport      `json:"toolCalls,omitempty"`
	PaymentRequired []payment.Requirement `json:"paymentRequired,omitempty"`
}

// Handler orchestrates one conversation turn per request: tool discovery,
// payment gating, the bounded model loop and response assembly.
type Handler struct {
	Model        conversation.Model
	MCPServerURL string
	Persona      string
	// TurnTimeout bounds the whole turn, model calls included.
	TurnTimeout time.Duration
}

// NewHandler creates the turn orchestrator.
func NewHandler(model conversation.Model, mcpServerURL, persona string) *Handler {
	return &Handler{
		Model:        model,
		MCPServerURL: mcpServerURL,
		Persona:      persona,
		TurnTimeout:  2 * time.Minute,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var request Request
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	inbound, ok := decodeMessages(request.Messages)
	if !ok {
		respondError(w, http.StatusBadRequest, "Messages array is required")
		return
	}
	if request.AccountAddress == "" {
		respondError(w, http.StatusBadRequest, "Account address is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.TurnTimeout)
	defer cancel()

	session, err := mcpadapter.Connect(ctx, "mirrorme-agent", h.MCPServerURL)
	if err != nil {
		log.Printf("tool session setup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}
	// Teardown is best-effort after response assembly.
	defer session.Close()

	confirmation := h.confirmation(&request)
	gate := payment.NewGate(confirmation)
	entries := session.Tools()
	for i := range entries {
		entries[i] = gate.Wrap(entries[i])
	}

	loop := conversation.New(h.Model, entries)
	execution, err := loop.Run(ctx, h.history(inbound))
	if err != nil {
		log.Printf("conversation turn failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	response := Response{Text: execution.Text}
	if response.Text == "" {
		response.Text = noResponseText
	}
	for _, executed := range execution.Executions() {
		response.ToolCalls = append(response.ToolCalls, toolCallReport(executed))
	}
	if quoted := gate.Quoted(); len(quoted) > 0 {
		response.PaymentRequired = quoted
	}
	respondJSON(w, http.StatusOK, response)
}

// confirmation builds the turn's payment context from the client's resent
// requirements. A single object is accepted as well as an array.
func (h *Handler) confirmation(request *Request) *payment.Confirmation {
	ret := &payment.Confirmation{Confirmed: request.ConfirmPayment}
	if len(request.PaymentRequirements) == 0 {
		return ret
	}
	var many []payment.Requirement
	if err := json.Unmarshal(request.PaymentRequirements, &many); err == nil {
		ret.Accepted = many
		return ret
	}
	var one payment.Requirement
	if err := json.Unmarshal(request.PaymentRequirements, &one); err == nil {
		ret.Accepted = []payment.Requirement{one}
	}
	return ret
}

func (h *Handler) history(inbound []InboundMessage) []llm.Message {
	messages := make([]llm.Message, 0, len(inbound)+1)
	if h.Persona != "" {
		messages = append(messages, llm.NewSystemMessage(h.Persona))
	}
	for _, m := range inbound {
		switch m.Role {
		case "assistant":
			messages = append(messages, llm.NewAssistantMessage(m.Content))
		case "system":
			messages = append(messages, llm.NewSystemMessage(m.Content))
		default:
			messages = append(messages, llm.NewUserMessage(m.Content))
		}
	}
	return messages
}

func decodeMessages(raw json.RawMessage) ([]InboundMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var inbound []InboundMessage
	if err := json.Unmarshal(trimmed, &inbound); err != nil {
		return nil, false
	}
	return inbound, true
}

func toolCallReport(executed conversation.ToolExecution) ToolCallReport {
	report := ToolCallReport{
		ToolName:   executed.Call.Name,
		ToolCallID: executed.Call.ID,
		Input:      executed.Call.Args(),
		IsError:    executed.IsError,
	}
	// Prefer the decoded JSON payload; fall back to the raw text.
	var decoded interface{}
	if err := json.Unmarshal([]byte(executed.Content), &decoded); err == nil {
		report.Output = decoded
	} else {
		report.Output = executed.Content
	}
	if executed.Result != nil {
		if accepts := payment.ExtractRequirements(executed.Result.Structured); len(accepts) > 0 {
			report.PaymentRequired = &accepts[0]
		}
	}
	return report
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
