// Package config centralizes runtime configuration. Values come from the
// environment, with a best-effort .env load for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime option the server recognizes.
type Config struct {
	// HTTP
	Port        int
	CORSOrigins string

	// Model provider (OpenRouter)
	OpenRouterAPIKey string
	OpenRouterModel  string
	AnthropicAPIKey  string
	MaxTokens        int
	MaxIterations    int

	// Supabase (blob store + key table)
	SupabaseURL   string
	SupabaseKey   string
	StorageBucket string

	// Search / browser providers
	TavilyAPIKey    string
	BraveAPIKey     string
	FirecrawlAPIKey string

	// Web fetching
	WebTimeout  time.Duration
	WebMaxSize  int64
	WebMaxChars int

	// Sandbox
	AllowCodeExec bool
	CodeTimeout   time.Duration
	WorkspacePath string

	// Logging
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getInt("PORT", 8000),
		CORSOrigins: getString("CORS_ORIGINS", "*"),

		OpenRouterAPIKey: getString("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getString("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
		AnthropicAPIKey:  getString("ANTHROPIC_API_KEY", ""),
		MaxTokens:        getInt("AGENT_MAX_TOKENS", 2048),
		MaxIterations:    getInt("AGENT_MAX_ITERATIONS", 7),

		SupabaseURL:   getString("SUPABASE_URL", ""),
		SupabaseKey:   firstNonEmpty(os.Getenv("SUPABASE_SERVICE_ROLE_KEY"), os.Getenv("SUPABASE_KEY")),
		StorageBucket: getString("SUPABASE_STORAGE_BUCKET", "chat-uploads"),

		TavilyAPIKey:    getString("TAVILY_API_KEY", ""),
		BraveAPIKey:     getString("BRAVE_SEARCH_API_KEY", ""),
		FirecrawlAPIKey: getString("FIRECRAWL_API_KEY", ""),

		WebTimeout:  getSeconds("WEB_TIMEOUT", 20*time.Second),
		WebMaxSize:  int64(getInt("WEB_MAX_SIZE", 2_000_000)),
		WebMaxChars: getInt("WEB_MAX_CHARS", 50_000),

		AllowCodeExec: getBool("ALLOW_CODE_EXEC", false),
		CodeTimeout:   getSeconds("CODE_TIMEOUT", 10*time.Second),
		WorkspacePath: getString("AGENT_WORKSPACE", "/tmp/agent_workspace"),

		LogLevel: getString("LOG_LEVEL", "info"),
	}
}

// Validate reports the first missing credential the server cannot run without.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL não configurada")
	}
	if c.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_KEY não configurada")
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS into a list for the CORS middleware.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// getSeconds parses a duration expressed as seconds, accepting fractions
// ("20", "7.5") for parity with existing deployment configs.
func getSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
