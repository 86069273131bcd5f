// Package interfaces defines service contracts for the assistant server.
package interfaces

import (
	"context"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// ChatPolicy selects how tool calls are resolved during a conversation.
type ChatPolicy string

const (
	// PolicyManual surfaces pending tool calls to the session, which resolves
	// them explicitly and round-trips the result.
	PolicyManual ChatPolicy = "manual"

	// PolicyAuto resolves tool calls inside the provider handle; the session
	// only ever sees final text.
	PolicyAuto ChatPolicy = "auto"
)

// ToolResolver executes a named tool on behalf of an auto-policy handle.
// Execution errors are returned as result text, never as an error that aborts
// the turn.
type ToolResolver func(ctx context.Context, name string, args map[string]any) string

// ChatProvider opens conversation handles against the language-model service.
type ChatProvider interface {
	// StartChat opens a provider session seeded with durable history. The
	// resolver is only consulted under PolicyAuto.
	StartChat(ctx context.Context, history []models.Message, tools []models.ToolSchema, resolver ToolResolver) (ChatHandle, error)

	// GenerateContent performs a stateless one-off generation (no history, no
	// tools). Used by tools that need model output mid-dispatch.
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ChatHandle is one live provider conversation.
type ChatHandle interface {
	// Send submits a user prompt. Under PolicyManual the reply may carry a
	// pending tool call; under PolicyAuto it is always final text.
	Send(ctx context.Context, prompt string) (*models.ProviderReply, error)

	// SendToolResult round-trips a resolved tool result as a structured
	// follow-up and returns the provider's final reply.
	SendToolResult(ctx context.Context, name, result string) (*models.ProviderReply, error)

	// Close discards the handle.
	Close()
}

// MarketDataClient retrieves historical bars and fundamentals.
type MarketDataClient interface {
	// Bars returns daily bars for a range spec like "6mo", "1y", "2y",
	// ordered newest-first.
	Bars(ctx context.Context, ticker, rangeSpec string) ([]models.EODBar, error)

	// LastClose returns the most recent closing price.
	LastClose(ctx context.Context, ticker string) (float64, error)

	// BatchLastClose prices multiple tickers; missing tickers are absent from
	// the result rather than failing the batch.
	BatchLastClose(ctx context.Context, tickers []string) (map[string]float64, error)

	// Fundamentals returns key valuation metrics for a ticker.
	Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)

	// Status reports reachability of the upstream data source.
	Status(ctx context.Context) string
}

// NewsClient retrieves news articles.
type NewsClient interface {
	TopBusinessHeadlines(ctx context.Context, limit int) ([]models.Article, error)
	Everything(ctx context.Context, query string, limit int) ([]models.Article, error)
}
