package app

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// registerTools exposes the analysis tool registry over MCP. Every tool the
// conversation engine can call is also callable by an MCP client, with the
// same schemas and the same dispatch semantics.
func (a *App) registerTools() {
	for _, schema := range a.Tools.Schemas() {
		a.MCPServer.AddTool(mcpToolFromSchema(schema), a.handleTool(schema.Name))
	}
}

// mcpToolFromSchema translates a registry schema into an MCP tool definition.
func mcpToolFromSchema(schema models.ToolSchema) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(schema.Description)}
	for _, arg := range schema.Args {
		propOpts := []mcp.PropertyOption{mcp.Description(arg.Description)}
		if arg.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch arg.Type {
		case models.ArgTypeInteger, models.ArgTypeNumber:
			opts = append(opts, mcp.WithNumber(arg.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(arg.Name, propOpts...))
		}
	}
	return mcp.NewTool(schema.Name, opts...)
}

// handleTool dispatches an MCP tool call through the shared registry.
// Execution failures come back as tool result text, matching how the
// conversation engine folds them into the transcript.
func (a *App) handleTool(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := a.Tools.Dispatch(ctx, name, request.GetArguments())
		if err != nil {
			a.Logger.Error().Err(err).Str("tool", name).Msg("MCP tool dispatch failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(result), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(message)},
		IsError: true,
	}
}
