package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

func newEchoRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(common.NewSilentLogger(), []ToolDescriptor{
		{
			Schema: models.ToolSchema{
				Name:        "echo_window",
				Description: "echoes the window argument and its Go type",
				Args: []models.ToolArg{
					{Name: "window", Type: models.ArgTypeInteger, Required: true},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return fmt.Sprintf("%T:%v", args["window"], args["window"]), nil
			},
		},
		{
			Schema: models.ToolSchema{Name: "always_fails"},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return "", fmt.Errorf("upstream exploded")
			},
		},
		{
			Schema: models.ToolSchema{Name: "always_panics"},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				panic("boom")
			},
		},
	})
}

func TestDispatchWindowCoercion(t *testing.T) {
	registry := newEchoRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name string
		arg  any
		want string
	}{
		{name: "string digits", arg: "20", want: "int:20"},
		{name: "float from JSON", arg: 20.0, want: "int:20"},
		{name: "already int", arg: 20, want: "int:20"},
		{name: "float string", arg: "14.0", want: "int:14"},
		{name: "uncoercible stays put", arg: "twenty", want: "string:twenty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := registry.Dispatch(ctx, "echo_window", map[string]any{"window": tt.arg})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	registry := newEchoRegistry(t)

	_, err := registry.Dispatch(context.Background(), "no_such_tool", nil)
	assert.ErrorIs(t, err, common.ErrUnknownTool)
}

func TestDispatchFoldsToolErrorsIntoText(t *testing.T) {
	registry := newEchoRegistry(t)

	result, err := registry.Dispatch(context.Background(), "always_fails", nil)
	require.NoError(t, err)
	assert.Contains(t, result, "Error executing always_fails")
	assert.Contains(t, result, "upstream exploded")
}

func TestDispatchRecoversFromPanics(t *testing.T) {
	registry := newEchoRegistry(t)

	result, err := registry.Dispatch(context.Background(), "always_panics", nil)
	require.NoError(t, err)
	assert.Contains(t, result, "Error executing always_panics")
}

func TestSchemasPreserveRegistrationOrder(t *testing.T) {
	registry := newEchoRegistry(t)

	schemas := registry.Schemas()
	require.Len(t, schemas, 3)
	assert.Equal(t, "echo_window", schemas[0].Name)
	assert.Equal(t, "always_fails", schemas[1].Name)
	assert.Equal(t, "always_panics", schemas[2].Name)
}

func TestDuplicateRegistrationKeepsFirst(t *testing.T) {
	registry := NewRegistry(common.NewSilentLogger(), []ToolDescriptor{
		{
			Schema: models.ToolSchema{Name: "dup"},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return "first", nil
			},
		},
		{
			Schema: models.ToolSchema{Name: "dup"},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				return "second", nil
			},
		},
	})

	require.Len(t, registry.Schemas(), 1)
	result, err := registry.Dispatch(context.Background(), "dup", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", result)
}
