package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("IMPORT_SOURCES", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ImportInterval != time.Hour {
		t.Fatalf("expected default import interval, got %s", cfg.ImportInterval)
	}
	if cfg.EnrollmentTTL != 30*time.Second {
		t.Fatalf("expected default enrollment ttl, got %s", cfg.EnrollmentTTL)
	}
	if cfg.CaseAPIMaxRetries != 3 {
		t.Fatalf("expected default retries, got %d", cfg.CaseAPIMaxRetries)
	}
	if len(cfg.ImportSources) != 0 {
		t.Fatalf("expected no default import sources, got %v", cfg.ImportSources)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard cors default, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CASE_API_BASE_URL", "https://case.example.org")
	t.Setenv("CASE_API_TIMEOUT", "45s")
	t.Setenv("IMPORT_SOURCES", "wrhi, annex ")
	t.Setenv("IMPORT_INTERVAL", "30m")
	t.Setenv("WORKSHEET_DOCS", "Soweto Clinic")
	t.Setenv("GATEWAY_URL", "https://opera.example.org/eapi")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.CaseAPITimeout != 45*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.CaseAPITimeout)
	}
	if cfg.ImportInterval != 30*time.Minute {
		t.Fatalf("expected import interval override, got %s", cfg.ImportInterval)
	}
	if len(cfg.ImportSources) != 2 || cfg.ImportSources[0] != "wrhi" || cfg.ImportSources[1] != "annex" {
		t.Fatalf("expected trimmed import sources, got %v", cfg.ImportSources)
	}
	if cfg.GatewayURL != "https://opera.example.org/eapi" {
		t.Fatalf("expected gateway override, got %s", cfg.GatewayURL)
	}
	if len(cfg.WorksheetDocs) != 1 || cfg.WorksheetDocs[0] != "Soweto Clinic" {
		t.Fatalf("expected worksheet docs override, got %v", cfg.WorksheetDocs)
	}
}
