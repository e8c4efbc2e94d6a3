package bedrockconverse

import (
	"github.com/claude-vim/claude-bridge/internal/claudeadapter/types"
)

// fromToolSpecs transforms client tool specs to a Converse tool configuration.
// Returns nil when no tools are supplied so the field is omitted from the request.
func fromToolSpecs(tools []types.ToolSpec) *ToolConfig {
	if len(tools) == 0 {
		return nil
	}

	converseTools := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		converseTools = append(converseTools, Tool{
			ToolSpec: ToolSpecification{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: ToolInputSchema{JSON: tool.InputSchema},
			},
		})
	}

	return &ToolConfig{Tools: converseTools}
}

// toToolSpecs converts a Converse tool configuration back to client tool specs.
func toToolSpecs(config *ToolConfig) []types.ToolSpec {
	if config == nil || len(config.Tools) == 0 {
		return nil
	}

	tools := make([]types.ToolSpec, 0, len(config.Tools))
	for _, tool := range config.Tools {
		tools = append(tools, types.ToolSpec{
			Name:        tool.ToolSpec.Name,
			Description: tool.ToolSpec.Description,
			InputSchema: tool.ToolSpec.InputSchema.JSON,
		})
	}
	return tools
}
