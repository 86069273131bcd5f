// Package app wires configuration, storage, clients and services into one
// runnable application core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/clients/gemini"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/clients/newsapi"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/clients/yahoo"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/services/auth"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/services/chat"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/services/dashboard"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/services/portfolio"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/services/quota"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/services/tools"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/storage/chatfs"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/storage/portfoliofs"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/storage/userdb"
)

// App holds all initialized stores, clients, services and the MCP server.
type App struct {
	Config *common.Config
	Logger *common.Logger

	Ledger         *userdb.Store
	ChatStore      *chatfs.Store
	PortfolioStore *portfoliofs.Store

	MarketClient interfaces.MarketDataClient
	NewsClient   interfaces.NewsClient // nil when no NewsAPI key is configured
	Provider     *gemini.Client

	Identity  interfaces.IdentityService
	Quota     interfaces.QuotaLedger
	Tools     interfaces.ToolDispatcher
	Chat      interfaces.ChatService
	Portfolio *portfolio.Service
	Dashboard interfaces.DashboardService

	MCPServer   *server.MCPServer
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, services and the MCP server.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Config resolution: explicit path, ASSISTANT_CONFIG, binary dir, then
	// the development fallback.
	if configPath == "" {
		configPath = os.Getenv("ASSISTANT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "assistant.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/assistant.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	// Storage
	ledger, err := userdb.NewStore(logger, config.Storage.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user ledger: %w", err)
	}
	chatStore, err := chatfs.NewStore(logger, config.Storage.Chat.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat history store: %w", err)
	}
	portfolioStore, err := portfoliofs.NewStore(logger, config.Storage.Portfolio.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio store: %w", err)
	}

	// API keys
	geminiKey, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("gemini API key is required: %w", err)
	}
	newsKey, err := common.ResolveAPIKey("news_api_key", config.Clients.NewsAPI.APIKey)
	if err != nil {
		logger.Warn().Msg("NewsAPI key not configured - news features will be unavailable")
	}

	// Clients
	marketClient := yahoo.NewClient(
		yahoo.WithLogger(logger),
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	var newsClient interfaces.NewsClient
	if newsKey != "" {
		newsClient = newsapi.NewClient(newsKey,
			newsapi.WithLogger(logger),
			newsapi.WithBaseURL(config.Clients.NewsAPI.BaseURL),
			newsapi.WithRateLimit(config.Clients.NewsAPI.RateLimit),
			newsapi.WithTimeout(config.Clients.NewsAPI.GetTimeout()),
		)
	}

	policy := interfaces.PolicyManual
	if config.Chat.ProviderPolicy == "auto" {
		policy = interfaces.PolicyAuto
	}
	provider, err := gemini.NewClient(ctx, geminiKey,
		gemini.WithLogger(logger),
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithPolicy(policy),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	// Services
	quotaService := quota.NewService(ledger, logger, config.Chat.FreeDailyLimit)
	identityService := auth.NewService(ledger, logger, config.Auth.JWTSecret, config.Auth.GetTokenExpiry())
	portfolioService := portfolio.NewService(portfolioStore, marketClient, logger)
	toolRegistry := tools.NewFinanceRegistry(tools.Deps{
		Market:    marketClient,
		News:      newsClient,
		Provider:  provider,
		Portfolio: portfolioService,
		Logger:    logger,
	})
	chatService := chat.NewService(provider, toolRegistry, chatStore, portfolioService, logger, config.Chat.GetTurnTimeout())
	dashboardService := dashboard.NewService(marketClient, newsClient, logger)

	mcpServer := server.NewMCPServer(
		"stock-assistant",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:         config,
		Logger:         logger,
		Ledger:         ledger,
		ChatStore:      chatStore,
		PortfolioStore: portfolioStore,
		MarketClient:   marketClient,
		NewsClient:     newsClient,
		Provider:       provider,
		Identity:       identityService,
		Quota:          quotaService,
		Tools:          toolRegistry,
		Chat:           chatService,
		Portfolio:      portfolioService,
		Dashboard:      dashboardService,
		MCPServer:      mcpServer,
		StartupTime:    startupStart,
	}

	a.registerTools()

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close user ledger")
		}
		a.Ledger = nil
	}
}
