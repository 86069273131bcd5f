package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/app"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// PortfolioManager is the portfolio surface the REST handlers need: the
// read-side service plus holding writes.
type PortfolioManager interface {
	interfaces.PortfolioService
	SaveHoldings(ctx context.Context, username string, data *models.UserData) error
}

// deps carries everything the handlers touch, so tests can wire fakes
// without building a full App.
type deps struct {
	Config    *common.Config
	Logger    *common.Logger
	Identity  interfaces.IdentityService
	Quota     interfaces.QuotaLedger
	Chat      interfaces.ChatService
	Portfolio PortfolioManager
	Dashboard interfaces.DashboardService
	Market    interfaces.MarketDataClient
	MCP       http.Handler
	Startup   time.Time
}

// Server wraps the HTTP server and its service dependencies.
type Server struct {
	config    *common.Config
	logger    *common.Logger
	identity  interfaces.IdentityService
	quota     interfaces.QuotaLedger
	chat      interfaces.ChatService
	portfolio PortfolioManager
	dashboard interfaces.DashboardService
	market    interfaces.MarketDataClient
	mcp       http.Handler
	startup   time.Time
	server    *http.Server
}

// NewServer creates the HTTP REST API server from an initialized App.
func NewServer(a *app.App) *Server {
	return newServer(deps{
		Config:    a.Config,
		Logger:    a.Logger,
		Identity:  a.Identity,
		Quota:     a.Quota,
		Chat:      a.Chat,
		Portfolio: a.Portfolio,
		Dashboard: a.Dashboard,
		Market:    a.MarketClient,
		MCP: mcpserver.NewStreamableHTTPServer(a.MCPServer,
			mcpserver.WithStateLess(true),
		),
		Startup: a.StartupTime,
	})
}

func newServer(d deps) *Server {
	s := &Server{
		config:    d.Config,
		logger:    d.Logger,
		identity:  d.Identity,
		quota:     d.Quota,
		chat:      d.Chat,
		portfolio: d.Portfolio,
		dashboard: d.Dashboard,
		market:    d.Market,
		mcp:       d.MCP,
		startup:   d.Startup,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, d.Logger, d.Identity)

	addr := ":8080"
	if d.Config != nil {
		addr = fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.Port)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/upgrade", s.handleAuthUpgrade)

	// Conversation
	mux.HandleFunc("/api/chat/turn", s.handleChatTurn)
	mux.HandleFunc("/api/chat/history", s.handleChatHistory)
	mux.HandleFunc("/api/chat/reset", s.handleChatReset)
	mux.HandleFunc("/api/quota", s.handleQuota)

	// Portfolio
	mux.HandleFunc("/api/portfolio/holdings", s.handlePortfolioHoldings)
	mux.HandleFunc("/api/portfolio/value", s.handlePortfolioValue)
	mux.HandleFunc("/api/portfolio/chart", s.handlePortfolioChart)

	// Dashboard
	mux.HandleFunc("/api/dashboard/tape", s.handleDashboardTape)
	mux.HandleFunc("/api/dashboard/movers", s.handleDashboardMovers)
	mux.HandleFunc("/api/dashboard/news", s.handleDashboardNews)

	// MCP over Streamable HTTP
	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
