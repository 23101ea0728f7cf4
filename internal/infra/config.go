package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	GeoIPDBPath string

	CORSAllowedOrigins []string

	DeepInfraAPIKey    string
	DeepInfraBaseURL   string
	DeepInfraModel     string
	CreditsPer1KTokens float64

	OCRServiceURL string
	OCRAPIKey     string

	FetchTimeout      time.Duration
	ScreenshotEnabled bool
	BrowserControlURL string
	ChromeBin         string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	DBMaxConns       int32
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DeepInfraAPIKey:    strings.TrimSpace(os.Getenv("DEEPINFRA_API_KEY")),
		DeepInfraBaseURL:   getEnv("DEEPINFRA_BASE_URL", "https://api.deepinfra.com/v1/openai"),
		DeepInfraModel:     getEnv("DEEPINFRA_MODEL", "meta-llama/Meta-Llama-3.1-8B-Instruct"),
		CreditsPer1KTokens: getEnvFloat("CREDITS_PER_1K_TOKENS", 1),
		OCRServiceURL:      strings.TrimSpace(os.Getenv("OCR_SERVICE_URL")),
		OCRAPIKey:          os.Getenv("OCR_API_KEY"),
		FetchTimeout:       time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 20)),
		BrowserControlURL:  os.Getenv("BROWSER_CONTROL_URL"),
		ChromeBin:          os.Getenv("CHROME_BIN"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 10)),
	}
	// Screenshots default on outside production, where a browser is rarely bundled.
	cfg.ScreenshotEnabled = getEnvBool("SCREENSHOT_ENABLED", !cfg.IsProduction() || cfg.BrowserControlURL != "")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.CreditsPer1KTokens <= 0 {
		return nil, fmt.Errorf("CREDITS_PER_1K_TOKENS must be positive")
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// CreditsPerToken is the credit price of a single token.
func (c *Config) CreditsPerToken() float64 {
	return c.CreditsPer1KTokens / 1000
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
