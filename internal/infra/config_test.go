package infra

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("CREDITS_PER_1K_TOKENS", "")
	t.Setenv("SCREENSHOT_ENABLED", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CreditsPerToken() != 0.001 {
		t.Fatalf("CreditsPerToken = %v, want 0.001", cfg.CreditsPerToken())
	}
	if !cfg.ScreenshotEnabled {
		t.Fatal("screenshots should default on in development")
	}
	if cfg.FetchTimeout != 20*time.Second {
		t.Fatalf("FetchTimeout = %v, want 20s", cfg.FetchTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigProductionDisablesScreenshotsWithoutBrowser(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SCREENSHOT_ENABLED", "")
	t.Setenv("BROWSER_CONTROL_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ScreenshotEnabled {
		t.Fatal("screenshots should default off in production without a browser")
	}

	t.Setenv("BROWSER_CONTROL_URL", "ws://browser:9222")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.ScreenshotEnabled {
		t.Fatal("screenshots should default on when a remote browser is configured")
	}
}

func TestLoadConfigParsesLists(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com, ,https://www.example.com ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://app.example.com", "https://www.example.com"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	tests := []struct {
		name string
		db   string
		jwt  string
	}{
		{name: "missing database", db: "", jwt: "secret"},
		{name: "missing jwt", db: "postgres://example", jwt: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", tt.db)
			t.Setenv("JWT_SECRET", tt.jwt)
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfigRejectsNonPositiveRate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CREDITS_PER_1K_TOKENS", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero credit rate")
	}
}
