package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// memHistoryStore is an in-memory ChatHistoryStore.
type memHistoryStore struct {
	histories map[string][]models.Message
	failSave  bool
}

func newMemHistoryStore() *memHistoryStore {
	return &memHistoryStore{histories: make(map[string][]models.Message)}
}

func (m *memHistoryStore) Load(username string) ([]models.Message, error) {
	if h, ok := m.histories[username]; ok {
		return append([]models.Message{}, h...), nil
	}
	return []models.Message{}, nil
}

func (m *memHistoryStore) Save(username string, history []models.Message) error {
	if m.failSave {
		return fmt.Errorf("disk full")
	}
	durable := make([]models.Message, len(history))
	for i, msg := range history {
		msg.Chart = nil
		durable[i] = msg
	}
	m.histories[username] = durable
	return nil
}

func (m *memHistoryStore) Clear(username string) error {
	delete(m.histories, username)
	return nil
}

// scriptedProvider replays canned replies and records what it was sent.
type scriptedProvider struct {
	replies   []*models.ProviderReply
	failSend  bool
	sent      []string
	toolSent  []string
	histories [][]models.Message
}

func (p *scriptedProvider) StartChat(ctx context.Context, history []models.Message, tools []models.ToolSchema, resolver interfaces.ToolResolver) (interfaces.ChatHandle, error) {
	p.histories = append(p.histories, history)
	return &scriptedHandle{provider: p}, nil
}

func (p *scriptedProvider) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return "generated", nil
}

type scriptedHandle struct {
	provider *scriptedProvider
	cursor   int
}

func (h *scriptedHandle) next() (*models.ProviderReply, error) {
	if h.provider.failSend {
		return nil, common.ErrProviderUnavailable
	}
	if h.cursor >= len(h.provider.replies) {
		return &models.ProviderReply{Text: "done"}, nil
	}
	reply := h.provider.replies[h.cursor]
	h.cursor++
	return reply, nil
}

func (h *scriptedHandle) Send(ctx context.Context, prompt string) (*models.ProviderReply, error) {
	h.provider.sent = append(h.provider.sent, prompt)
	return h.next()
}

func (h *scriptedHandle) SendToolResult(ctx context.Context, name, result string) (*models.ProviderReply, error) {
	h.provider.toolSent = append(h.provider.toolSent, name+"="+result)
	return h.next()
}

func (h *scriptedHandle) Close() {}

// stubDispatcher resolves every tool to a fixed string.
type stubDispatcher struct {
	calls []string
}

func (d *stubDispatcher) Schemas() []models.ToolSchema {
	return []models.ToolSchema{{Name: "get_stock_price"}}
}

func (d *stubDispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	d.calls = append(d.calls, name)
	if name == "unknown" {
		return "", common.ErrUnknownTool
	}
	return "price is 42", nil
}

// stubPortfolio returns a fixed context string.
type stubPortfolio struct {
	contextText string
}

func (p *stubPortfolio) Holdings(ctx context.Context, username string) (*models.UserData, error) {
	return &models.UserData{}, nil
}

func (p *stubPortfolio) Valuation(ctx context.Context, username string) (*models.PortfolioValuation, error) {
	return &models.PortfolioValuation{}, nil
}

func (p *stubPortfolio) ContextString(ctx context.Context, username string) string {
	return p.contextText
}

func (p *stubPortfolio) GrowthChart(ctx context.Context, username string) (*models.Chart, error) {
	return nil, fmt.Errorf("not implemented")
}

func newTestService(provider *scriptedProvider, store *memHistoryStore, dispatcher *stubDispatcher, portfolio *stubPortfolio) *Service {
	if dispatcher == nil {
		dispatcher = &stubDispatcher{}
	}
	if portfolio == nil {
		portfolio = &stubPortfolio{}
	}
	return NewService(provider, dispatcher, store, portfolio, common.NewSilentLogger(), time.Minute)
}

func TestSendTurnPlainText(t *testing.T) {
	provider := &scriptedProvider{replies: []*models.ProviderReply{{Text: "AAPL closed at 189.50"}}}
	store := newMemHistoryStore()
	svc := newTestService(provider, store, nil, nil)

	result, err := svc.SendTurn(context.Background(), "alice", "what is AAPL trading at?")
	require.NoError(t, err)
	assert.Equal(t, "AAPL closed at 189.50", result.Text)
	assert.Nil(t, result.Chart)

	// Durable transcript: welcome, user, assistant.
	history := store.histories["alice"]
	require.Len(t, history, 3)
	assert.Equal(t, models.RoleAssistant, history[0].Role)
	assert.Equal(t, WelcomeMessage, history[0].Content)
	assert.Equal(t, "what is AAPL trading at?", history[1].Content)
	assert.Equal(t, "AAPL closed at 189.50", history[2].Content)
}

func TestSendTurnToolRoundTrip(t *testing.T) {
	provider := &scriptedProvider{replies: []*models.ProviderReply{
		{Call: &models.ToolCall{Name: "get_stock_price", Args: map[string]any{"ticker": "AAPL"}}},
		{Text: "AAPL is at 42"},
	}}
	store := newMemHistoryStore()
	dispatcher := &stubDispatcher{}
	svc := newTestService(provider, store, dispatcher, nil)

	result, err := svc.SendTurn(context.Background(), "alice", "price of AAPL?")
	require.NoError(t, err)
	assert.Equal(t, "AAPL is at 42", result.Text)
	assert.Equal(t, []string{"get_stock_price"}, dispatcher.calls)
	assert.Equal(t, []string{"get_stock_price=price is 42"}, provider.toolSent)
}

func TestSendTurnUnknownToolFoldsIntoResult(t *testing.T) {
	provider := &scriptedProvider{replies: []*models.ProviderReply{
		{Call: &models.ToolCall{Name: "unknown"}},
		{Text: "sorry, no such capability"},
	}}
	svc := newTestService(provider, newMemHistoryStore(), &stubDispatcher{}, nil)

	result, err := svc.SendTurn(context.Background(), "alice", "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "sorry, no such capability", result.Text)
	require.Len(t, provider.toolSent, 1)
	assert.Contains(t, provider.toolSent[0], "Error:")
}

func TestSendTurnPortfolioKeywordInjection(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		injected bool
	}{
		{name: "english keyword", prompt: "How is my PORTFOLIO doing?", injected: true},
		{name: "indonesian keyword", prompt: "bagaimana investasi saya?", injected: true},
		{name: "holding keyword", prompt: "value my holdings", injected: true},
		{name: "no keyword", prompt: "price of AAPL", injected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{replies: []*models.ProviderReply{{Text: "ok"}}}
			portfolio := &stubPortfolio{contextText: "The user's current portfolio:\n- BBCA.JK"}
			svc := newTestService(provider, newMemHistoryStore(), nil, portfolio)

			_, err := svc.SendTurn(context.Background(), "alice", tt.prompt)
			require.NoError(t, err)
			require.Len(t, provider.sent, 1)

			sent := provider.sent[0]
			if tt.injected {
				assert.Contains(t, sent, "The user's current portfolio")
				// Original prompt closes the shaped text verbatim.
				assert.True(t, len(sent) > len(tt.prompt))
				assert.Contains(t, sent, "User question: "+tt.prompt)
			} else {
				assert.Equal(t, tt.prompt, sent)
			}
		})
	}
}

func TestSendTurnStoresOriginalPromptNotShaped(t *testing.T) {
	provider := &scriptedProvider{replies: []*models.ProviderReply{{Text: "ok"}}}
	portfolio := &stubPortfolio{contextText: "portfolio context"}
	store := newMemHistoryStore()
	svc := newTestService(provider, store, nil, portfolio)

	_, err := svc.SendTurn(context.Background(), "alice", "show my portfolio")
	require.NoError(t, err)

	history := store.histories["alice"]
	require.Len(t, history, 3)
	assert.Equal(t, "show my portfolio", history[1].Content)
}

func TestSendTurnProviderFailureKeepsUserMessage(t *testing.T) {
	provider := &scriptedProvider{failSend: true}
	store := newMemHistoryStore()
	svc := newTestService(provider, store, nil, nil)

	_, err := svc.SendTurn(context.Background(), "alice", "hello?")
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)

	// The user message survives for the next turn.
	history := store.histories["alice"]
	require.Len(t, history, 2)
	assert.Equal(t, "hello?", history[1].Content)
}

func TestHistorySeedsWelcomeMessage(t *testing.T) {
	store := newMemHistoryStore()
	svc := newTestService(&scriptedProvider{}, store, nil, nil)

	history, err := svc.History(context.Background(), "newuser")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleAssistant, history[0].Role)
	assert.Equal(t, WelcomeMessage, history[0].Content)

	// Seed is persisted.
	assert.Len(t, store.histories["newuser"], 1)
}

func TestResetClearsHistory(t *testing.T) {
	provider := &scriptedProvider{replies: []*models.ProviderReply{{Text: "ok"}}}
	store := newMemHistoryStore()
	svc := newTestService(provider, store, nil, nil)

	_, err := svc.SendTurn(context.Background(), "alice", "hi")
	require.NoError(t, err)
	require.NotEmpty(t, store.histories["alice"])

	require.NoError(t, svc.Reset(context.Background(), "alice"))
	assert.Empty(t, store.histories["alice"])

	// Next history read starts fresh with the welcome message.
	history, err := svc.History(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, WelcomeMessage, history[0].Content)
}

func TestSendTurnSaveFailureDoesNotFailTurn(t *testing.T) {
	provider := &scriptedProvider{replies: []*models.ProviderReply{{Text: "ok"}}}
	store := newMemHistoryStore()
	store.failSave = true
	svc := newTestService(provider, store, nil, nil)

	result, err := svc.SendTurn(context.Background(), "alice", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
}

func TestSendTurnSeedsHistoryIntoProvider(t *testing.T) {
	provider := &scriptedProvider{replies: []*models.ProviderReply{{Text: "ok"}}}
	store := newMemHistoryStore()
	store.histories["alice"] = []models.Message{
		{Role: models.RoleAssistant, Content: WelcomeMessage},
		{Role: models.RoleUser, Content: "earlier question"},
		{Role: models.RoleAssistant, Content: "earlier answer"},
	}
	svc := newTestService(provider, store, nil, nil)

	_, err := svc.SendTurn(context.Background(), "alice", "follow-up")
	require.NoError(t, err)

	require.Len(t, provider.histories, 1)
	assert.Len(t, provider.histories[0], 3)
}
