package llm

import mcpschema "github.com/viant/mcp-protocol/schema"

// Tool represents a tool that can be used by an LLM.
type Tool struct {
	// Type is the type of the tool. Currently, only "function" is supported.
	Type string `json:"type" yaml:"type"`

	// Definition is the function definition for this tool.
	Definition ToolDefinition `json:"definition" yaml:"definition"`
}

// ToolDefinition represents a function that can be called by an LLM,
// described with a JSON Schema parameter object.
type ToolDefinition struct {
	// Name is the name of the function to be called.
	Name string `json:"name" yaml:"name"`

	// Description is a description of what the function does.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Parameters is a JSON Schema object that defines the accepted input.
	Parameters map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Required is a list of required parameters.
	Required []string `json:"required,omitempty" yaml:"required"`
}

// NewFunctionTool creates a new Tool representing a callable function.
func NewFunctionTool(definition ToolDefinition) Tool {
	return Tool{Type: "function", Definition: definition}
}

// Normalize ensures provider-agnostic schema validity: parameters is always a
// JSON object with type=object and a properties object.
func (d *ToolDefinition) Normalize() {
	if d.Parameters == nil {
		d.Parameters = map[string]interface{}{}
	}
	if _, ok := d.Parameters["type"]; !ok || d.Parameters["type"] == nil {
		d.Parameters["type"] = "object"
	}
	if props, ok := d.Parameters["properties"]; !ok || props == nil {
		d.Parameters["properties"] = map[string]interface{}{}
	} else if _, ok := props.(map[string]interface{}); !ok {
		switch m := props.(type) {
		case map[string]map[string]interface{}:
			coerced := make(map[string]interface{}, len(m))
			for k, v := range m {
				coerced[k] = v
			}
			d.Parameters["properties"] = coerced
		case mcpschema.ToolInputSchemaProperties:
			coerced := make(map[string]interface{}, len(m))
			for k, v := range m {
				coerced[k] = v
			}
			d.Parameters["properties"] = coerced
		default:
			d.Parameters["properties"] = map[string]interface{}{}
		}
	}
}

// ToolChoice represents a choice of tool to use: "none", "auto", or a function.
type ToolChoice struct {
	Type     string              `json:"type"`
	Function *ToolChoiceFunction `json:"function,omitempty"`
}

// ToolChoiceFunction names the function to call when Type is "function".
type ToolChoiceFunction struct {
	Name string `json:"name"`
}

// NewAutoToolChoice creates a new ToolChoice with "auto" type.
func NewAutoToolChoice() ToolChoice {
	return ToolChoice{Type: "auto"}
}

// ToolDefinitionFromMcpTool converts an MCP tool descriptor into an llm tool definition.
func ToolDefinitionFromMcpTool(tool *mcpschema.Tool) *ToolDefinition {
	description := ""
	if tool.Description != nil {
		description = *tool.Description
	}
	def := ToolDefinition{
		Name:        tool.Name,
		Description: description,
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}
	def.Parameters["properties"] = tool.InputSchema.Properties
	def.Required = tool.InputSchema.Required
	return &def
}
