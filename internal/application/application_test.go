package application

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/atlasml/mmprep/internal/config"
	"github.com/atlasml/mmprep/internal/storage"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.InitialProfile.Capacity = 1234
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	profile, err := app.storage.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if profile.Capacity != 1234 {
		t.Fatalf("expected capacity 1234, got %d", profile.Capacity)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.Router() == nil {
		t.Fatalf("Router accessor returned nil")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewReturnsErrorForInvalidProfile(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.InitialProfile = storage.Profile{}

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid profile")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		InitialProfile:       storage.DefaultProfile(),
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
