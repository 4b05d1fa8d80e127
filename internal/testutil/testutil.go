package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/neuraforge/collab-gateway/internal/api"
	"github.com/neuraforge/collab-gateway/internal/config"
	"github.com/neuraforge/collab-gateway/internal/repository"
	"github.com/neuraforge/collab-gateway/internal/repository/memory"
	"github.com/neuraforge/collab-gateway/internal/service"
	"github.com/neuraforge/collab-gateway/internal/websocket"
	"golang.org/x/crypto/bcrypt"
)

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0" // Random port
	cfg.Environment = "test"
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.SeedDemoUser = true
	return cfg
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by in-memory stores
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithConfig(t, TestConfig())
}

// NewTestServerWithConfig is NewTestServer with a caller-supplied config
func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	repos := memory.NewRepositories()
	services := service.NewServicesWithCost(repos, cfg, bcrypt.MinCost)

	if cfg.SeedDemoUser {
		if _, err := services.Credentials.SeedDemoUser(context.Background()); err != nil {
			t.Fatalf("failed to seed demo user: %v", err)
		}
	}

	hub := websocket.NewHub()
	go hub.Run()

	router := api.NewRouter(services, hub, cfg)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	return ts
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/ws?token=%s", wsURL, token)
}
