package models

// Argument types understood by the tool wire contract.
const (
	ArgTypeString  = "string"
	ArgTypeInteger = "integer"
	ArgTypeNumber  = "number"
)

// ToolArg describes one argument in a tool's ordered schema.
type ToolArg struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// ToolSchema is the provider-facing description of a registered tool.
type ToolSchema struct {
	Name        string
	Description string
	Args        []ToolArg
}
