// Package chat runs multi-turn conversations against the language-model
// provider, including tool round trips and durable history.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

const (
	// WelcomeMessage seeds every new conversation and is persisted as the
	// first assistant message.
	WelcomeMessage = "Hello! I'm your stock assistant. Ask me about stock prices, " +
		"technical indicators, fundamentals, news sentiment, charts, or your portfolio."

	// maxToolRounds bounds tool round trips within one turn under the
	// manual policy.
	maxToolRounds = 5

	// DefaultTurnTimeout bounds one full turn including tool round trips.
	DefaultTurnTimeout = 120 * time.Second
)

// portfolioKeywords trigger valuation context injection. Matched
// case-insensitively as substrings.
var portfolioKeywords = []string{"portofolio", "portfolio", "holding", "investasi"}

const portfolioInstructions = "Answer using the portfolio data above. Format monetary " +
	"amounts with two decimals and always state gains and losses with their sign and percentage."

// Service implements interfaces.ChatService. One session per user, one turn
// at a time per session.
type Service struct {
	provider    interfaces.ChatProvider
	dispatcher  interfaces.ToolDispatcher
	store       interfaces.ChatHistoryStore
	portfolio   interfaces.PortfolioService
	logger      *common.Logger
	turnTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu sync.Mutex
}

// NewService creates a chat service.
func NewService(
	provider interfaces.ChatProvider,
	dispatcher interfaces.ToolDispatcher,
	store interfaces.ChatHistoryStore,
	portfolio interfaces.PortfolioService,
	logger *common.Logger,
	turnTimeout time.Duration,
) *Service {
	if turnTimeout <= 0 {
		turnTimeout = DefaultTurnTimeout
	}
	return &Service{
		provider:    provider,
		dispatcher:  dispatcher,
		store:       store,
		portfolio:   portfolio,
		logger:      logger,
		turnTimeout: turnTimeout,
		sessions:    make(map[string]*session),
	}
}

func (s *Service) session(username string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[username]
	if !ok {
		sess = &session{}
		s.sessions[username] = sess
	}
	return sess
}

// loadHistory returns the durable transcript, seeding and persisting the
// welcome message for first-time users.
func (s *Service) loadHistory(username string) ([]models.Message, error) {
	history, err := s.store.Load(username)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		history = []models.Message{{Role: models.RoleAssistant, Content: WelcomeMessage}}
		s.saveHistory(username, history)
	}
	return history, nil
}

// saveHistory persists the transcript. Write failures are logged and
// swallowed: losing one save never fails a turn the user already paid for.
func (s *Service) saveHistory(username string, history []models.Message) {
	if err := s.store.Save(username, history); err != nil {
		s.logger.Error().Str("username", username).Err(err).Msg("Failed to save chat history")
	}
}

// shapePrompt injects portfolio context when the prompt mentions holdings.
// The user's original prompt always closes the shaped text verbatim.
func (s *Service) shapePrompt(ctx context.Context, username, prompt string) string {
	lower := strings.ToLower(prompt)
	matched := false
	for _, kw := range portfolioKeywords {
		if strings.Contains(lower, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return prompt
	}

	info := s.portfolio.ContextString(ctx, username)
	if info == "" {
		return prompt
	}
	return info + "\n" + portfolioInstructions + "\n\nUser question: " + prompt
}

// SendTurn runs one full conversation turn: history load, prompt shaping,
// provider round trips with tool resolution, and durable history append. The
// user message is persisted even when the provider fails mid-turn.
func (s *Service) SendTurn(ctx context.Context, username, prompt string) (*models.TurnResult, error) {
	sess := s.session(username)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.turnTimeout)
	defer cancel()

	history, err := s.loadHistory(username)
	if err != nil {
		return nil, err
	}

	slot := &common.ChartSlot{}
	ctx = common.WithChartSlot(ctx, slot)

	resolver := func(ctx context.Context, name string, args map[string]any) string {
		result, err := s.dispatcher.Dispatch(ctx, name, args)
		if err != nil {
			return "Error: " + err.Error()
		}
		return result
	}

	handle, err := s.provider.StartChat(ctx, history, s.dispatcher.Schemas(), resolver)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	// Persist the user message up front so a provider failure still leaves
	// it in the transcript.
	history = append(history, models.Message{Role: models.RoleUser, Content: prompt})
	s.saveHistory(username, history)

	reply, err := handle.Send(ctx, s.shapePrompt(ctx, username, prompt))
	if err != nil {
		return nil, err
	}

	// Manual-policy tool loop. Auto-policy handles never surface calls, so
	// this loop body runs zero times and both policies behave identically
	// from here.
	for round := 0; reply.Call != nil && round < maxToolRounds; round++ {
		result := resolver(ctx, reply.Call.Name, reply.Call.Args)
		reply, err = handle.SendToolResult(ctx, reply.Call.Name, result)
		if err != nil {
			return nil, err
		}
	}

	text := reply.Text
	if text == "" {
		text = "Sorry, I could not generate a response. Please try again."
	}

	chart := slot.Take()
	assistantMsg := models.Message{Role: models.RoleAssistant, Content: text, Chart: chart}
	history = append(history, assistantMsg)
	s.saveHistory(username, history)

	return &models.TurnResult{Text: text, Chart: chart}, nil
}

// History returns the durable transcript, seeding the welcome message for
// new users.
func (s *Service) History(ctx context.Context, username string) ([]models.Message, error) {
	sess := s.session(username)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return s.loadHistory(username)
}

// Reset clears the durable transcript. The next turn starts fresh with the
// welcome message.
func (s *Service) Reset(ctx context.Context, username string) error {
	sess := s.session(username)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return s.store.Clear(username)
}

// Ensure Service implements ChatService
var _ interfaces.ChatService = (*Service)(nil)
