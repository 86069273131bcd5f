// Package tools implements the typed analysis tool registry exposed to the
// conversation provider.
package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// InvokeFunc executes a tool against coerced arguments.
type InvokeFunc func(ctx context.Context, args map[string]any) (string, error)

// ToolDescriptor is one registered tool: schema plus implementation.
type ToolDescriptor struct {
	Schema models.ToolSchema
	Invoke InvokeFunc
}

// Registry is an immutable, ordered collection of tool descriptors. It is
// built once at startup and shared across all conversations.
type Registry struct {
	ordered []ToolDescriptor
	byName  map[string]ToolDescriptor
	logger  *common.Logger
}

// NewRegistry builds a registry from descriptors. Duplicate names keep the
// first registration.
func NewRegistry(logger *common.Logger, descriptors []ToolDescriptor) *Registry {
	r := &Registry{
		byName: make(map[string]ToolDescriptor, len(descriptors)),
		logger: logger,
	}
	for _, d := range descriptors {
		if _, exists := r.byName[d.Schema.Name]; exists {
			logger.Warn().Str("tool", d.Schema.Name).Msg("Duplicate tool registration ignored")
			continue
		}
		r.byName[d.Schema.Name] = d
		r.ordered = append(r.ordered, d)
	}
	return r
}

// Schemas returns the registered tool schemas in registration order.
func (r *Registry) Schemas() []models.ToolSchema {
	schemas := make([]models.ToolSchema, len(r.ordered))
	for i, d := range r.ordered {
		schemas[i] = d.Schema
	}
	return schemas
}

// Dispatch executes a named tool. A missing tool returns ErrUnknownTool;
// argument coercion is applied per the tool's schema; tool panics and errors
// are folded into the returned result text so the conversation turn survives.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (result string, err error) {
	tool, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: '%s'", common.ErrUnknownTool, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("tool", name).Interface("panic", rec).Msg("Tool panicked")
			result = fmt.Sprintf("Error executing %s: internal tool failure", name)
			err = nil
		}
	}()

	coerced := coerceArgs(tool.Schema, args)

	r.logger.Debug().Str("tool", name).Msg("Dispatching tool")
	text, invokeErr := tool.Invoke(ctx, coerced)
	if invokeErr != nil {
		r.logger.Warn().Str("tool", name).Err(invokeErr).Msg("Tool returned error")
		return fmt.Sprintf("Error executing %s: %v", name, invokeErr), nil
	}
	return text, nil
}

// coerceArgs normalizes raw provider arguments against the schema. Integer
// arguments arrive from the wire as float64 or quoted strings; both are
// accepted.
func coerceArgs(schema models.ToolSchema, args map[string]any) map[string]any {
	coerced := make(map[string]any, len(args))
	for k, v := range args {
		coerced[k] = v
	}
	for _, spec := range schema.Args {
		if spec.Type != models.ArgTypeInteger {
			continue
		}
		raw, ok := coerced[spec.Name]
		if !ok {
			continue
		}
		if n, ok := toInt(raw); ok {
			coerced[spec.Name] = n
		}
	}
	return coerced
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(math.Round(x)), true
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return int(math.Round(f)), true
		}
	}
	return 0, false
}

// --- argument accessors used by tool implementations ---

func argString(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, name string, fallback int) int {
	if v, ok := args[name]; ok {
		if n, ok := toInt(v); ok {
			return n
		}
	}
	return fallback
}

// Ensure Registry implements ToolDispatcher
var _ interfaces.ToolDispatcher = (*Registry)(nil)
