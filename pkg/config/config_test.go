package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.Catalog.BaseURL != "https://fakestoreapi.com" {
		t.Fatalf("unexpected catalog base url %q", cfg.Catalog.BaseURL)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %v", cfg.Session.TTL)
	}
	if cfg.Session.UsesRedis() {
		t.Fatalf("memory backend should be the default")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected two default origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvCatalogBaseURL, "http://catalog.internal:9000")
	t.Setenv(EnvCatalogTimeout, "3s")
	t.Setenv(EnvSessionBackend, "redis")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvCORSOrigins, "https://shop.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected prod env, got %q", cfg.App.Env)
	}
	if cfg.Catalog.Timeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.Catalog.Timeout)
	}
	if !cfg.Session.UsesRedis() {
		t.Fatalf("expected redis backend")
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://shop.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_RedisBackendRequiresAddress(t *testing.T) {
	t.Setenv(EnvSessionBackend, "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without address to return an error")
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv(EnvSessionBackend, "memcached")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown session backend to return an error")
	}
}

func TestLoad_RejectsRelativeCatalogURL(t *testing.T) {
	t.Setenv(EnvCatalogBaseURL, "/products")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative catalog url to return an error")
	}
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	for _, port := range []string{"http", "0", "70000"} {
		t.Setenv(EnvPort, port)
		if _, err := Load(); err == nil {
			t.Fatalf("expected port %q to return an error", port)
		}
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
