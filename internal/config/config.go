package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// JWT (issued by the auth service, verified here)
	JWTSecret string

	// AI providers
	AICandidates []Candidate
	AITimeout    time.Duration
	AIWorkers    int

	GLMAPIKey string
	GLMAPIURL string

	DeepSeekAPIKey string
	DeepSeekAPIURL string

	OpenAIAPIKey string
	OpenAIAPIURL string

	GeminiAPIKey string
	GeminiAPIURL string

	AnthropicAPIKey  string
	AnthropicBaseURL string

	// Analysis claims ("" keeps claims in process memory)
	RedisURL string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port           string
	CORSOrigins    string
	WriteRateLimit float64
	WriteBurst     int

	LogLevel         string
	LogRetentionDays int
}

// Candidate is one provider/model pair the generation gateway may try.
type Candidate struct {
	Provider string
	Model    string
}

func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "nyaynow_confessions"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AICandidates: ParseCandidates(getEnv("AI_CANDIDATES", "gemini:gemini-1.5-flash,gemini:gemini-1.5-pro,deepseek:deepseek-chat")),
		AITimeout:    parseDuration(getEnv("AI_TIMEOUT", "30s"), 30*time.Second),
		AIWorkers:    parseInt(getEnv("AI_WORKERS", "4"), 4),

		GLMAPIKey: getEnv("GLM_API_KEY", ""),
		GLMAPIURL: getEnv("GLM_API_URL", "https://api.z.ai/api/paas/v4/chat/completions"),

		DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekAPIURL: getEnv("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:           getEnv("PORT", "8080"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
		WriteRateLimit: parseFloat(getEnv("WRITE_RATE_LIMIT", "0.5"), 0.5),
		WriteBurst:     parseInt(getEnv("WRITE_BURST", "5"), 5),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

// DSN returns the Postgres DSN assembled from the DB_* variables.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// UsesSQLite reports whether DATABASE_URL points at a sqlite file.
func (c *Config) UsesSQLite() bool {
	return strings.HasPrefix(c.DatabaseURL, "sqlite://")
}

// APIKey returns the configured key for a provider family.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "glm":
		return c.GLMAPIKey
	case "deepseek":
		return c.DeepSeekAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	}
	return ""
}

// APIURL returns the chat-completions endpoint for an OpenAI-compatible provider.
func (c *Config) APIURL(provider string) string {
	switch provider {
	case "glm":
		return c.GLMAPIURL
	case "deepseek":
		return c.DeepSeekAPIURL
	case "openai":
		return c.OpenAIAPIURL
	case "gemini":
		return c.GeminiAPIURL
	case "anthropic":
		return c.AnthropicBaseURL
	}
	return ""
}

// ParseCandidates parses "provider:model,provider:model". Entries without a
// provider prefix are skipped; order is preserved.
func ParseCandidates(s string) []Candidate {
	var out []Candidate
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		provider, model, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		provider = strings.ToLower(strings.TrimSpace(provider))
		model = strings.TrimSpace(model)
		if provider == "" || model == "" {
			continue
		}
		out = append(out, Candidate{Provider: provider, Model: model})
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
