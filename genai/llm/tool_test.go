package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	mcpschema "github.com/viant/mcp-protocol/schema"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		description string
		definition  ToolDefinition
	}{
		{
			description: "nil parameters",
			definition:  ToolDefinition{Name: "a"},
		},
		{
			description: "missing type and properties",
			definition:  ToolDefinition{Name: "b", Parameters: map[string]interface{}{}},
		},
		{
			description: "typed properties map",
			definition: ToolDefinition{Name: "c", Parameters: map[string]interface{}{
				"properties": map[string]map[string]interface{}{
					"url": {"type": "string"},
				},
			}},
		},
		{
			description: "schema properties from a tool listing",
			definition: ToolDefinition{Name: "d", Parameters: map[string]interface{}{
				"properties": mcpschema.ToolInputSchemaProperties{
					"url": {"type": "string"},
				},
			}},
		},
	}

	for _, tc := range testCases {
		tc.definition.Normalize()
		assert.EqualValues(t, "object", tc.definition.Parameters["type"], tc.description)
		_, ok := tc.definition.Parameters["properties"].(map[string]interface{})
		assert.True(t, ok, tc.description)
	}
}

func TestToolDefinitionFromMcpTool(t *testing.T) {
	description := "Shorten a URL"
	def := ToolDefinitionFromMcpTool(&mcpschema.Tool{
		Name:        "shorten_url",
		Description: &description,
		InputSchema: mcpschema.ToolInputSchema{
			Type: "object",
			Properties: mcpschema.ToolInputSchemaProperties{
				"url": {"type": "string"},
			},
			Required: []string{"url"},
		},
	})
	assert.EqualValues(t, "shorten_url", def.Name)
	assert.EqualValues(t, "Shorten a URL", def.Description)
	assert.EqualValues(t, []string{"url"}, def.Required)

	def.Normalize()
	props, ok := def.Parameters["properties"].(map[string]interface{})
	assert.True(t, ok)
	assert.NotNil(t, props["url"])
}
