// Package expose serves the paid tools over the MCP streamable HTTP
// transport, quoting a payment requirement before executing each tool.
package expose

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mirrorme/mirrorme/genai/payment"
	"github.com/mirrorme/mirrorme/internal/tools"
	"github.com/mirrorme/mirrorme/internal/x402"
	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"
)

// QuoteConfig fixes the payment terms every paid tool quotes.
type QuoteConfig struct {
	Network      string
	PayTo        string
	Asset        string
	ResourceBase string
	// VerifyPayments requires a facilitator verdict before executing a paid
	// call. When off, a matching confirmed quote is accepted as proof.
	VerifyPayments bool
}

// PaidToolHandler answers tools/list and tools/call for the paid tool set.
type PaidToolHandler struct {
	quote       QuoteConfig
	facilitator *x402.Client
	tools       map[string]*tools.PaidTool
	order       []string
}

// NewPaidToolHandler creates the handler over a fixed tool set.
func NewPaidToolHandler(quote QuoteConfig, facilitator *x402.Client, paidTools ...*tools.PaidTool) *PaidToolHandler {
	ret := &PaidToolHandler{
		quote:       quote,
		facilitator: facilitator,
		tools:       make(map[string]*tools.PaidTool, len(paidTools)),
	}
	for _, paidTool := range paidTools {
		ret.tools[paidTool.Name] = paidTool
		ret.order = append(ret.order, paidTool.Name)
	}
	return ret
}

// Requirement derives the fresh quote for one tool.
func (h *PaidToolHandler) Requirement(paidTool *tools.PaidTool) *payment.Requirement {
	return &payment.Requirement{
		Scheme:            payment.DefaultScheme,
		Network:           h.quote.Network,
		MaxAmountRequired: payment.BaseUnits(paidTool.PriceUSD),
		Resource:          strings.TrimRight(h.quote.ResourceBase, "/") + "/tools/" + paidTool.Name,
		Description:       paidTool.Description,
		MimeType:          "application/json",
		PayTo:             h.quote.PayTo,
		MaxTimeoutSeconds: payment.DefaultTimeoutSeconds,
		Asset:             h.quote.Asset,
	}
}

// ---------------- mcp-protocol/server.Operations ----------------

func (h *PaidToolHandler) Initialize(_ context.Context, _ *mcpschema.InitializeRequestParams, _ *mcpschema.InitializeResult) {
}

func (h *PaidToolHandler) ListResources(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListResourcesRequest]) (*mcpschema.ListResourcesResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("resources/list not implemented", nil)
}

func (h *PaidToolHandler) ListResourceTemplates(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListResourceTemplatesRequest]) (*mcpschema.ListResourceTemplatesResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("resources/templates/list not implemented", nil)
}

func (h *PaidToolHandler) ReadResource(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ReadResourceRequest]) (*mcpschema.ReadResourceResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("resources/read not implemented", nil)
}

func (h *PaidToolHandler) Subscribe(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.SubscribeRequest]) (*mcpschema.SubscribeResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("subscribe not implemented", nil)
}

func (h *PaidToolHandler) Unsubscribe(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.UnsubscribeRequest]) (*mcpschema.UnsubscribeResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("unsubscribe not implemented", nil)
}

func (h *PaidToolHandler) ListTools(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListToolsRequest]) (*mcpschema.ListToolsResult, *jsonrpc.Error) {
	ret := &mcpschema.ListToolsResult{Tools: make([]mcpschema.Tool, 0, len(h.order))}
	for _, name := range h.order {
		paidTool := h.tools[name]
		description := paidTool.Description
		ret.Tools = append(ret.Tools, mcpschema.Tool{
			Name:        paidTool.Name,
			Description: &description,
			InputSchema: paidTool.InputSchema,
		})
	}
	return ret, nil
}

func (h *PaidToolHandler) CallTool(ctx context.Context, req *jsonrpc.TypedRequest[*mcpschema.CallToolRequest]) (*mcpschema.CallToolResult, *jsonrpc.Error) {
	if req == nil || req.Request == nil {
		return nil, jsonrpc.NewInvalidRequest("missing request", nil)
	}
	name := strings.TrimSpace(req.Request.Params.Name)
	if name == "" {
		return nil, jsonrpc.NewInvalidRequest("missing tool name", nil)
	}
	paidTool, ok := h.tools[name]
	if !ok {
		return nil, mcpschema.NewUnknownTool(name)
	}

	args := map[string]interface{}{}
	for k, v := range req.Request.Params.Arguments {
		args[k] = v
	}
	proof, paid := args[payment.PaymentArgKey]
	delete(args, payment.PaymentArgKey)

	quote := h.Requirement(paidTool)
	if !paid {
		return paymentRequired(quote), nil
	}
	confirmed, err := payment.ParseRequirement(proof)
	if err != nil || !quote.Matches(confirmed) {
		// Stale or altered quote: never execute, quote again.
		return paymentRequired(quote), nil
	}
	if h.quote.VerifyPayments {
		if jerr := h.verify(ctx, confirmed, quote); jerr != nil {
			return jerr, nil
		}
	}

	out, execErr := paidTool.Execute(ctx, args)
	if execErr != nil {
		isErr := true
		return &mcpschema.CallToolResult{
			IsError: &isErr,
			Content: []mcpschema.CallToolResultContentElem{{Type: "text", Text: execErr.Error()}},
		}, nil
	}
	text, _ := json.Marshal(out)
	return &mcpschema.CallToolResult{
		Content:           []mcpschema.CallToolResultContentElem{{Type: "text", Text: string(text)}},
		StructuredContent: out,
	}, nil
}

func (h *PaidToolHandler) verify(ctx context.Context, confirmed, quote *payment.Requirement) *mcpschema.CallToolResult {
	verdict, err := h.facilitator.Verify(ctx, confirmed.AsMap(), quote.AsMap())
	if err != nil {
		log.Printf("facilitator verification failed: %v", err)
		return toolError("payment verification unavailable")
	}
	if !verdict.IsValid {
		reason := verdict.InvalidReason
		if reason == "" {
			reason = "payment rejected"
		}
		return toolError(fmt.Sprintf("payment verification failed: %s", reason))
	}
	return nil
}

func (h *PaidToolHandler) ListPrompts(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.ListPromptsRequest]) (*mcpschema.ListPromptsResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("prompts/list not implemented", nil)
}

func (h *PaidToolHandler) GetPrompt(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.GetPromptRequest]) (*mcpschema.GetPromptResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("prompts/get not implemented", nil)
}

func (h *PaidToolHandler) Complete(_ context.Context, _ *jsonrpc.TypedRequest[*mcpschema.CompleteRequest]) (*mcpschema.CompleteResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("complete not implemented", nil)
}

// ---------------- mcp-protocol/server.Handler ----------------

func (h *PaidToolHandler) OnNotification(_ context.Context, _ *jsonrpc.Notification) {}

func (h *PaidToolHandler) Implements(method string) bool {
	switch method {
	case mcpschema.MethodToolsList, mcpschema.MethodToolsCall:
		return true
	default:
		return false
	}
}

// ---------------- helpers ----------------

func paymentRequired(quote *payment.Requirement) *mcpschema.CallToolResult {
	signal := map[string]interface{}{
		payment.ErrorKey: payment.RequiredSignal{Accepts: []payment.Requirement{*quote}},
	}
	// Round-trip through JSON so structured content holds plain maps.
	data, _ := json.Marshal(signal)
	structured := map[string]interface{}{}
	_ = json.Unmarshal(data, &structured)
	amountUSD := float64(0)
	fmt.Sscanf(quote.MaxAmountRequired, "%f", &amountUSD)
	text := fmt.Sprintf("Payment required: $%.6f USD to %s on %s for %s",
		amountUSD/1e6, quote.PayTo, quote.Network, quote.Resource)
	return &mcpschema.CallToolResult{
		Content:           []mcpschema.CallToolResultContentElem{{Type: "text", Text: text}},
		StructuredContent: structured,
	}
}

func toolError(message string) *mcpschema.CallToolResult {
	isErr := true
	return &mcpschema.CallToolResult{
		IsError: &isErr,
		Content: []mcpschema.CallToolResultContentElem{{Type: "text", Text: message}},
	}
}
