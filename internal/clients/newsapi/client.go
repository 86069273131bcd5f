// Package newsapi provides a client for the NewsAPI.org REST API.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

const (
	DefaultBaseURL   = "https://newsapi.org/v2"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// Client implements the NewsClient interface against NewsAPI.org.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new NewsAPI client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("NewsAPI error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type articlesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values) (*articlesResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("apiKey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("NewsAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	var result articlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI returned status '%s': %s", result.Status, result.Message)
	}
	return &result, nil
}

func (r *articlesResponse) toArticles() []models.Article {
	articles := make([]models.Article, 0, len(r.Articles))
	for _, a := range r.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		articles = append(articles, models.Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles
}

// TopBusinessHeadlines retrieves current business headlines.
func (c *Client) TopBusinessHeadlines(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("category", "business")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(limit))

	resp, err := c.get(ctx, "/top-headlines", params)
	if err != nil {
		return nil, err
	}
	return resp.toArticles(), nil
}

// Everything searches all articles for a query, newest first.
func (c *Client) Everything(ctx context.Context, query string, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(limit))

	resp, err := c.get(ctx, "/everything", params)
	if err != nil {
		return nil, err
	}
	return resp.toArticles(), nil
}

// Ensure Client implements NewsClient
var _ interfaces.NewsClient = (*Client)(nil)
