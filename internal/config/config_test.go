package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	testAccessSecret  = "access-secret-access-secret-access-secret"
	testRefreshSecret = "refresh-secret-refresh-secret-refresh-secret"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VIDEOTUBE_ACCESS_TOKEN_SECRET", testAccessSecret)
	t.Setenv("VIDEOTUBE_REFRESH_TOKEN_SECRET", testRefreshSecret)
	t.Setenv("VIDEOTUBE_S3_BUCKET", "media")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Fatalf("expected default port 8000 got %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != time.Hour {
		t.Fatalf("unexpected access ttl %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 240*time.Hour {
		t.Fatalf("unexpected refresh ttl %v", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.ObjectStore.Bucket != "media" {
		t.Fatalf("expected bucket from env got %q", cfg.ObjectStore.Bucket)
	}
	if cfg.Cache.RedisAddr != "" {
		t.Fatalf("expected in-memory cache by default got %q", cfg.Cache.RedisAddr)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "videotube.yaml")
	contents := []byte(`
server:
  port: 9100
cache:
  redis_addr: "redis:6379"
  stats_ttl: 1m
cors:
  allowed_origins: ["https://app.example.com"]
`)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VIDEOTUBE_PORT", "9200")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9200 {
		t.Fatalf("expected env to win over file, got port %d", cfg.Server.Port)
	}
	if cfg.Cache.RedisAddr != "redis:6379" {
		t.Fatalf("expected redis addr from file got %q", cfg.Cache.RedisAddr)
	}
	if cfg.Cache.StatsTTL != time.Minute {
		t.Fatalf("expected stats ttl from file got %v", cfg.Cache.StatsTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Server.WriteTimeout != 5*time.Minute {
		t.Fatalf("expected default write timeout to survive file load, got %v", cfg.Server.WriteTimeout)
	}
}

func TestValidate(t *testing.T) {
	base := Defaults()
	base.Auth.AccessTokenSecret = testAccessSecret
	base.Auth.RefreshTokenSecret = testRefreshSecret
	base.ObjectStore.Bucket = "media"

	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	cases := map[string]func(*Config){
		"shortAccessSecret": func(c *Config) { c.Auth.AccessTokenSecret = "short" },
		"missingRefresh":    func(c *Config) { c.Auth.RefreshTokenSecret = "" },
		"sameSecrets":       func(c *Config) { c.Auth.RefreshTokenSecret = c.Auth.AccessTokenSecret },
		"missingBucket":     func(c *Config) { c.ObjectStore.Bucket = " " },
		"badPort":           func(c *Config) { c.Server.Port = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestAuthConfigSameSite(t *testing.T) {
	cases := map[string]http.SameSite{
		"strict": http.SameSiteStrictMode,
		"None":   http.SameSiteNoneMode,
		"lax":    http.SameSiteLaxMode,
		"":       http.SameSiteLaxMode,
	}
	for name, want := range cases {
		if got := (AuthConfig{CookieSameSite: name}).SameSite(); got != want {
			t.Fatalf("%q: expected %v got %v", name, want, got)
		}
	}
}
