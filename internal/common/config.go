package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the assistant server
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Chat        ChatConfig    `toml:"chat"`
	Auth        AuthConfig    `toml:"auth"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds path configuration for the 3 storage areas.
type StorageConfig struct {
	Ledger    AreaConfig `toml:"ledger"`    // User accounts + quota (BadgerHold)
	Chat      AreaConfig `toml:"chat"`      // Per-user chat history (JSON files)
	Portfolio AreaConfig `toml:"portfolio"` // Per-user holdings (JSON files)
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Gemini  GeminiConfig  `toml:"gemini"`
	Yahoo   YahooConfig   `toml:"yahoo"`
	NewsAPI NewsAPIConfig `toml:"newsapi"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// YahooConfig holds Yahoo Finance API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// NewsAPIConfig holds NewsAPI configuration
type NewsAPIConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NewsAPIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ChatConfig holds conversation engine configuration.
type ChatConfig struct {
	ProviderPolicy string `toml:"provider_policy"` // "manual" or "auto"
	TurnTimeout    string `toml:"turn_timeout"`    // duration string, default "120s"
	FreeDailyLimit int    `toml:"free_daily_limit"`
}

// GetTurnTimeout parses and returns the per-turn deadline.
func (c *ChatConfig) GetTurnTimeout() time.Duration {
	d, err := time.ParseDuration(c.TurnTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Ledger:    AreaConfig{Path: "data/ledger"},
			Chat:      AreaConfig{Path: "data/chat"},
			Portfolio: AreaConfig{Path: "data/portfolio"},
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			NewsAPI: NewsAPIConfig{
				BaseURL:   "https://newsapi.org/v2",
				RateLimit: 2,
				Timeout:   "30s",
			},
		},
		Chat: ChatConfig{
			ProviderPolicy: "manual",
			TurnTimeout:    "120s",
			FreeDailyLimit: 5,
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateProviderPolicy(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ASSISTANT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ASSISTANT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ASSISTANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ASSISTANT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ASSISTANT_DATA_PATH"); path != "" {
		config.Storage.Ledger.Path = path + "/ledger"
		config.Storage.Chat.Path = path + "/chat"
		config.Storage.Portfolio.Path = path + "/portfolio"
	}

	if policy := os.Getenv("ASSISTANT_PROVIDER_POLICY"); policy != "" {
		config.Chat.ProviderPolicy = policy
	}

	if v := os.Getenv("ASSISTANT_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("ASSISTANT_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment variables with a config
// fallback. A missing key is not fatal: dependent tools degrade to error-text
// results instead of crashing the process.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "ASSISTANT_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"news_api_key":   {"NEWS_API_KEY", "ASSISTANT_NEWS_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// validateProviderPolicy ensures the policy is "manual" or "auto", defaulting to "manual".
func validateProviderPolicy(config *Config) {
	policy := strings.ToLower(strings.TrimSpace(config.Chat.ProviderPolicy))
	if policy != "manual" && policy != "auto" {
		policy = "manual"
	}
	config.Chat.ProviderPolicy = policy
}
