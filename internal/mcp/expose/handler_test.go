package expose

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/mirrorme/mirrorme/genai/payment"
	"github.com/mirrorme/mirrorme/internal/store"
	"github.com/mirrorme/mirrorme/internal/tools"
)

func testHandler(executions *int) *PaidToolHandler {
	paidTool := &tools.PaidTool{
		Name:        "book_meeting",
		Description: "Book a meeting with me",
		PriceUSD:    0.01,
		InputSchema: mcpschema.ToolInputSchema{Type: "object"},
		Execute: func(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			*executions++
			return map[string]interface{}{"success": true, "bookingId": "MEET-1-ABCDEFG"}, nil
		},
	}
	return NewPaidToolHandler(QuoteConfig{
		Network:      "base-sepolia",
		PayTo:        "0xabc",
		Asset:        "0xusdc",
		ResourceBase: "http://localhost:3002/mcp",
	}, nil, paidTool)
}

func callRequest(name string, args map[string]interface{}) *jsonrpc.TypedRequest[*mcpschema.CallToolRequest] {
	return &jsonrpc.TypedRequest[*mcpschema.CallToolRequest]{
		Request: &mcpschema.CallToolRequest{
			Params: mcpschema.CallToolRequestParams{
				Name:      name,
				Arguments: mcpschema.CallToolRequestParamsArguments(args),
			},
		},
	}
}

func TestListTools(t *testing.T) {
	executions := 0
	handler := testHandler(&executions)

	result, jerr := handler.ListTools(context.Background(), nil)
	assert.Nil(t, jerr)
	assert.EqualValues(t, 1, len(result.Tools))
	assert.EqualValues(t, "book_meeting", result.Tools[0].Name)
}

func TestCallToolQuotesBeforeExecution(t *testing.T) {
	executions := 0
	handler := testHandler(&executions)

	result, jerr := handler.CallTool(context.Background(), callRequest("book_meeting", map[string]interface{}{
		"date": "2026-09-01",
	}))
	assert.Nil(t, jerr)
	assert.Nil(t, result.IsError)

	accepts := payment.ExtractRequirements(result.StructuredContent)
	assert.EqualValues(t, 1, len(accepts))
	assert.EqualValues(t, "10000", accepts[0].MaxAmountRequired)
	assert.EqualValues(t, "base-sepolia", accepts[0].Network)
	assert.EqualValues(t, "0xabc", accepts[0].PayTo)
	assert.EqualValues(t, "http://localhost:3002/mcp/tools/book_meeting", accepts[0].Resource)
	assert.EqualValues(t, 300, accepts[0].MaxTimeoutSeconds)
	// No execution side effect before confirmation.
	assert.EqualValues(t, 0, executions)
}

func TestCallToolExecutesWithMatchingProof(t *testing.T) {
	executions := 0
	handler := testHandler(&executions)

	quote := handler.Requirement(handler.tools["book_meeting"])
	result, jerr := handler.CallTool(context.Background(), callRequest("book_meeting", map[string]interface{}{
		"date":                 "2026-09-01",
		payment.PaymentArgKey: quote.AsMap(),
	}))
	assert.Nil(t, jerr)
	assert.Nil(t, result.IsError)
	assert.EqualValues(t, 1, executions)
	assert.Empty(t, payment.ExtractRequirements(result.StructuredContent))
	assert.EqualValues(t, true, result.StructuredContent["success"])
}

func TestCallToolRequotesOnMismatchedProof(t *testing.T) {
	executions := 0
	handler := testHandler(&executions)

	stale := handler.Requirement(handler.tools["book_meeting"])
	stale.MaxAmountRequired = "1"
	result, jerr := handler.CallTool(context.Background(), callRequest("book_meeting", map[string]interface{}{
		payment.PaymentArgKey: stale.AsMap(),
	}))
	assert.Nil(t, jerr)
	assert.EqualValues(t, 0, executions)

	accepts := payment.ExtractRequirements(result.StructuredContent)
	assert.EqualValues(t, 1, len(accepts))
	assert.EqualValues(t, "10000", accepts[0].MaxAmountRequired)
}

func TestCallToolUnknownTool(t *testing.T) {
	executions := 0
	handler := testHandler(&executions)

	_, jerr := handler.CallTool(context.Background(), callRequest("missing", nil))
	assert.NotNil(t, jerr)
}

func TestShortenURLQuoteThenConfirm(t *testing.T) {
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "links.db"))
	assert.Nil(t, err)
	defer db.Close()

	handler := NewPaidToolHandler(QuoteConfig{
		Network:      "base-sepolia",
		PayTo:        "0xabc",
		Asset:        "0xusdc",
		ResourceBase: "http://localhost:3002/mcp",
	}, nil, tools.NewShortener(0.02, db, "http://localhost:3001"))

	args := map[string]interface{}{"url": "https://example.com/long"}
	result, jerr := handler.CallTool(context.Background(), callRequest("shorten_url", args))
	assert.Nil(t, jerr)

	accepts := payment.ExtractRequirements(result.StructuredContent)
	assert.EqualValues(t, 1, len(accepts))
	assert.EqualValues(t, "20000", accepts[0].MaxAmountRequired)
	assert.EqualValues(t, "base-sepolia", accepts[0].Network)

	confirmed := accepts[0]
	args[payment.PaymentArgKey] = confirmed.AsMap()
	result, jerr = handler.CallTool(context.Background(), callRequest("shorten_url", args))
	assert.Nil(t, jerr)
	assert.Empty(t, payment.ExtractRequirements(result.StructuredContent))
	assert.EqualValues(t, true, result.StructuredContent["success"])

	code, _ := result.StructuredContent["code"].(string)
	resolved, err := db.ResolveShortLink(context.Background(), code)
	assert.Nil(t, err)
	assert.EqualValues(t, "https://example.com/long", resolved)
}

func TestRequirementPrices(t *testing.T) {
	testCases := []struct {
		description string
		priceUSD    float64
		expected    string
	}{
		{description: "one cent tool", priceUSD: 0.01, expected: "10000"},
		{description: "two cent tool", priceUSD: 0.02, expected: "20000"},
	}

	executions := 0
	handler := testHandler(&executions)
	for _, tc := range testCases {
		quote := handler.Requirement(&tools.PaidTool{Name: "x", PriceUSD: tc.priceUSD})
		assert.EqualValues(t, tc.expected, quote.MaxAmountRequired, tc.description)
	}
}
