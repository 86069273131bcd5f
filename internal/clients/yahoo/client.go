// Package yahoo provides a client for the Yahoo Finance chart and
// quoteSummary APIs.
package yahoo

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
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client implements the MarketDataClient interface against Yahoo Finance.
type Client struct {
	baseURL    string
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

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// APIError represents an upstream API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo Finance API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stock-assistant/1.0)")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo Finance API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// chartResponse models the v8 chart API envelope.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Bars retrieves daily price bars for a range spec like "6mo", "1y", "2y".
// Bars are returned newest-first.
func (c *Client) Bars(ctx context.Context, ticker, rangeSpec string) ([]models.EODBar, error) {
	params := url.Values{}
	params.Set("range", rangeSpec)
	params.Set("interval", "1d")

	var resp chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for '%s': %s", ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data for '%s'", ticker)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	n := len(result.Timestamp)
	bars := make([]models.EODBar, 0, n)

	// The API returns oldest-first; reverse to newest-first and skip gaps
	// where the quote arrays carry zero-filled placeholder entries.
	for i := n - 1; i >= 0; i-- {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		bars = append(bars, models.EODBar{
			Date:   time.Unix(result.Timestamp[i], 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  quote.Close[i],
			Volume: atInt(quote.Volume, i),
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable bars for '%s'", ticker)
	}
	return bars, nil
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

func atInt(vals []int64, i int) int64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

// LastClose returns the most recent price for a ticker.
func (c *Client) LastClose(ctx context.Context, ticker string) (float64, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	var resp chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), params, &resp); err != nil {
		return 0, err
	}
	if resp.Chart.Error != nil {
		return 0, fmt.Errorf("chart error for '%s': %s", ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return 0, fmt.Errorf("no quote data for '%s'", ticker)
	}

	price := resp.Chart.Result[0].Meta.RegularMarketPrice
	if price == 0 {
		price = resp.Chart.Result[0].Meta.PreviousClose
	}
	if price == 0 {
		return 0, fmt.Errorf("no price available for '%s'", ticker)
	}
	return price, nil
}

// BatchLastClose prices multiple tickers. Tickers that fail to price are
// omitted from the result rather than failing the batch.
func (c *Client) BatchLastClose(ctx context.Context, tickers []string) (map[string]float64, error) {
	result := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		price, err := c.LastClose(ctx, ticker)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to price ticker")
			continue
		}
		result[ticker] = price
	}
	return result, nil
}

// quoteSummaryResponse models the v10 quoteSummary API envelope. Numeric
// fields arrive as {raw, fmt} pairs.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				MarketCap struct {
					Raw flexFloat64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE struct {
					Raw flexFloat64 `json:"raw"`
				} `json:"trailingPE"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps struct {
					Raw flexFloat64 `json:"raw"`
				} `json:"trailingEps"`
				PriceToBook struct {
					Raw flexFloat64 `json:"raw"`
				} `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Fundamentals retrieves key valuation metrics for a ticker.
func (c *Client) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	params := url.Values{}
	params.Set("modules", "price,summaryDetail,defaultKeyStatistics")

	var resp quoteSummaryResponse
	if err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote summary error for '%s': %s", ticker, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no fundamentals for '%s'", ticker)
	}

	r := resp.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}

	return &models.Fundamentals{
		Symbol:    ticker,
		Name:      name,
		MarketCap: float64(r.Price.MarketCap.Raw),
		PE:        float64(r.SummaryDetail.TrailingPE.Raw),
		EPS:       float64(r.DefaultKeyStatistics.TrailingEps.Raw),
		PBV:       float64(r.DefaultKeyStatistics.PriceToBook.Raw),
	}, nil
}

// Status reports reachability of the upstream data source.
func (c *Client) Status(ctx context.Context) string {
	if _, err := c.LastClose(ctx, "^GSPC"); err != nil {
		return "unreachable"
	}
	return "ok"
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
