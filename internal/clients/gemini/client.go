// Package gemini provides a client for the Google Gemini API with
// function-calling conversation support.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

const (
	DefaultModel = "gemini-2.5-flash"

	// maxToolIterations bounds the tool round trips an auto-policy handle
	// will perform for a single prompt.
	maxToolIterations = 5
)

// SystemInstruction frames the assistant for every conversation.
const SystemInstruction = `You are a helpful financial assistant for stock market questions. ` +
	`Use the available tools to fetch prices, fundamentals, news sentiment, charts and ` +
	`recommendations instead of guessing. Answer concisely and never fabricate market data.`

// Client implements the ChatProvider interface against the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	policy interfaces.ChatPolicy
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithPolicy sets the tool-resolution policy for conversation handles
func WithPolicy(policy interfaces.ChatPolicy) ClientOption {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		policy: interfaces.PolicyManual,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateContent generates content from a single prompt with no history or
// tools attached.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}

	return extractTextFromResponse(result)
}

// StartChat opens a conversation handle seeded with durable history. Which
// handle is returned depends on the configured policy; both expose identical
// turn behavior to callers.
func (c *Client) StartChat(ctx context.Context, history []models.Message, tools []models.ToolSchema, resolver interfaces.ToolResolver) (interfaces.ChatHandle, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
	}
	if len(tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(tools)}}
	}

	conv := &conversation{
		client:   c.client,
		model:    c.model,
		config:   config,
		contents: toGenaiContents(history),
		logger:   c.logger,
	}

	if c.policy == interfaces.PolicyAuto {
		if resolver == nil {
			return nil, fmt.Errorf("auto policy requires a tool resolver")
		}
		return &autoHandle{conv: conv, resolver: resolver}, nil
	}
	return &manualHandle{conv: conv}, nil
}

// conversation carries the accumulating provider-side transcript for one
// open handle.
type conversation struct {
	client   *genai.Client
	model    string
	config   *genai.GenerateContentConfig
	contents []*genai.Content
	logger   *common.Logger
}

// generate appends content to the transcript and requests the next model
// reply, recording it in the transcript as well.
func (cv *conversation) generate(ctx context.Context, next *genai.Content) (*genai.Content, error) {
	cv.contents = append(cv.contents, next)

	resp, err := cv.client.Models.GenerateContent(ctx, cv.model, cv.contents, cv.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty response", common.ErrProviderUnavailable)
	}

	modelContent := resp.Candidates[0].Content
	cv.contents = append(cv.contents, modelContent)
	return modelContent, nil
}

// reply converts model content into the provider-neutral form, surfacing the
// first pending function call if one exists.
func reply(content *genai.Content) *models.ProviderReply {
	r := &models.ProviderReply{Text: extractText(content)}
	for _, p := range content.Parts {
		if p.FunctionCall != nil {
			r.Call = &models.ToolCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			}
			break
		}
	}
	return r
}

// manualHandle surfaces pending tool calls to the caller, which resolves them
// and round-trips results through SendToolResult.
type manualHandle struct {
	conv *conversation
}

func (h *manualHandle) Send(ctx context.Context, prompt string) (*models.ProviderReply, error) {
	content, err := h.conv.generate(ctx, genai.NewContentFromText(prompt, genai.RoleUser))
	if err != nil {
		return nil, err
	}
	return reply(content), nil
}

func (h *manualHandle) SendToolResult(ctx context.Context, name, result string) (*models.ProviderReply, error) {
	content, err := h.conv.generate(ctx, functionResponseContent(name, result))
	if err != nil {
		return nil, err
	}
	return reply(content), nil
}

func (h *manualHandle) Close() {}

// autoHandle resolves tool calls internally; callers only ever see final
// text.
type autoHandle struct {
	conv     *conversation
	resolver interfaces.ToolResolver
}

func (h *autoHandle) Send(ctx context.Context, prompt string) (*models.ProviderReply, error) {
	content, err := h.conv.generate(ctx, genai.NewContentFromText(prompt, genai.RoleUser))
	if err != nil {
		return nil, err
	}

	for range maxToolIterations {
		r := reply(content)
		if r.Call == nil {
			return r, nil
		}

		h.conv.logger.Debug().Str("tool", r.Call.Name).Msg("Resolving tool call")
		result := h.resolver(ctx, r.Call.Name, r.Call.Args)

		content, err = h.conv.generate(ctx, functionResponseContent(r.Call.Name, result))
		if err != nil {
			return nil, err
		}
	}

	// Tool loop exhausted: surface whatever text the model last produced.
	return &models.ProviderReply{Text: extractText(content)}, nil
}

func (h *autoHandle) SendToolResult(ctx context.Context, name, result string) (*models.ProviderReply, error) {
	content, err := h.conv.generate(ctx, functionResponseContent(name, result))
	if err != nil {
		return nil, err
	}
	return reply(content), nil
}

func (h *autoHandle) Close() {}

// --- conversion helpers ---

func functionResponseContent(name, result string) *genai.Content {
	return &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{{
			FunctionResponse: &genai.FunctionResponse{
				Name:     name,
				Response: map[string]any{"result": result},
			},
		}},
	}
}

func toGenaiContents(history []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}
	return contents
}

func toFunctionDeclarations(tools []models.ToolSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		properties := make(map[string]*genai.Schema, len(tool.Args))
		var required []string
		for _, arg := range tool.Args {
			properties[arg.Name] = &genai.Schema{
				Type:        toGenaiType(arg.Type),
				Description: arg.Description,
			}
			if arg.Required {
				required = append(required, arg.Name)
			}
		}

		decls[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		}
	}
	return decls
}

func toGenaiType(argType string) genai.Type {
	switch argType {
	case models.ArgTypeInteger:
		return genai.TypeInteger
	case models.ArgTypeNumber:
		return genai.TypeNumber
	default:
		return genai.TypeString
	}
}

func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	return extractText(result.Candidates[0].Content), nil
}

func extractText(content *genai.Content) string {
	text := ""
	for _, part := range content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text
}

// Ensure Client implements ChatProvider
var _ interfaces.ChatProvider = (*Client)(nil)
