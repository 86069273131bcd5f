package interfaces

import (
	"context"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// QuotaLedger enforces the daily request quota per user.
type QuotaLedger interface {
	// CheckAvailable reports whether the user may issue another request today
	// and a human-readable status line. Day rollovers are applied before the
	// check.
	CheckAvailable(ctx context.Context, username string) (bool, string, error)

	// IncrementUsage records one consumed request. Pro-tier users are not
	// counted.
	IncrementUsage(ctx context.Context, username string) error

	// UpgradeTier moves the user to the pro tier.
	UpgradeTier(ctx context.Context, username string) error

	// Status returns the current status line without consuming anything.
	Status(ctx context.Context, username string) (string, error)
}

// IdentityService handles registration, credential checks and tokens.
type IdentityService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	IssueToken(user *models.User) (string, error)
	ValidateToken(token string) (*models.User, error)
}

// ToolDispatcher executes registered tools by name with raw provider args.
type ToolDispatcher interface {
	// Schemas returns the registered tool schemas in registration order.
	Schemas() []models.ToolSchema

	// Dispatch coerces args against the tool's schema and executes it. A
	// missing tool returns an unknown-tool error; tool execution failures are
	// folded into the returned result text.
	Dispatch(ctx context.Context, name string, args map[string]any) (string, error)
}

// ChatService runs conversation turns against the provider.
type ChatService interface {
	// SendTurn runs one full turn: history load, prompt shaping, provider
	// round trips including tool resolution, and durable history append.
	SendTurn(ctx context.Context, username, prompt string) (*models.TurnResult, error)

	// History returns the durable transcript for a user.
	History(ctx context.Context, username string) ([]models.Message, error)

	// Reset clears the durable transcript.
	Reset(ctx context.Context, username string) error
}

// PortfolioService values holdings and renders portfolio views.
type PortfolioService interface {
	Holdings(ctx context.Context, username string) (*models.UserData, error)
	Valuation(ctx context.Context, username string) (*models.PortfolioValuation, error)
	ContextString(ctx context.Context, username string) string
	GrowthChart(ctx context.Context, username string) (*models.Chart, error)
}

// DashboardService produces the market overview widgets.
type DashboardService interface {
	Tape(ctx context.Context) []models.TapeEntry
	WeeklyMovers(ctx context.Context, symbols []string) []models.Mover
	Headlines(ctx context.Context, limit int) ([]models.Article, error)
}
