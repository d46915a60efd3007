package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Downloads.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.Downloads.TokenTTL)
	}
	if cfg.Downloads.URLTTL != 24*time.Hour {
		t.Fatalf("unexpected url ttl: %v", cfg.Downloads.URLTTL)
	}
	if cfg.RateLimit.DownloadsPerMinute != 30 {
		t.Fatalf("unexpected rate limit: %d", cfg.RateLimit.DownloadsPerMinute)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
http:
  addr: ":9090"
paystack:
  webhook_secret: "sk_live_abc"
downloads:
  token_secret: "dl-secret"
  token_ttl: 12h
mail:
  enabled: true
  smtp_addr: "mail.internal:587"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Paystack.WebhookSecret != "sk_live_abc" {
		t.Fatalf("unexpected paystack secret: %q", cfg.Paystack.WebhookSecret)
	}
	if cfg.Downloads.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.Downloads.TokenTTL)
	}
	if !cfg.Mail.Enabled || cfg.Mail.SMTPAddr != "mail.internal:587" {
		t.Fatalf("unexpected mail config: %+v", cfg.Mail)
	}
	// untouched sections keep their defaults
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %q", cfg.Redis.Addr)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("PAYSTACK_WEBHOOK_SECRET", "sk_from_env")
	t.Setenv("DOWNLOAD_TOKEN_TTL", "6h")
	t.Setenv("RATE_DOWNLOADS_PER_MINUTE", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Paystack.WebhookSecret != "sk_from_env" {
		t.Fatalf("unexpected paystack secret: %q", cfg.Paystack.WebhookSecret)
	}
	if cfg.Downloads.TokenTTL != 6*time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.Downloads.TokenTTL)
	}
	if cfg.RateLimit.DownloadsPerMinute != 5 {
		t.Fatalf("unexpected rate limit: %d", cfg.RateLimit.DownloadsPerMinute)
	}
}

func TestLoadRejectsBadDurationEnv(t *testing.T) {
	t.Setenv("DOWNLOAD_TOKEN_TTL", "not-a-duration")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
