package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Environment     string        `yaml:"environment"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Sessions
	AccessTokenTTL       time.Duration `yaml:"accessTokenTTL"`
	RefreshTokenTTL      time.Duration `yaml:"refreshTokenTTL"`
	SessionSweepInterval time.Duration `yaml:"sessionSweepInterval"`
	TokenSigningSecret   string        `yaml:"tokenSigningSecret"`

	// Seed data
	SeedDemoUser bool `yaml:"seedDemoUser"`

	// Real-time gateway
	ClientSendBuffer int `yaml:"clientSendBuffer"`
}

// Default returns the configuration used when nothing else is supplied.
// Tokens never expire by default.
func Default() *Config {
	return &Config{
		Host:                 "0.0.0.0",
		Port:                 "3001",
		Environment:          "development",
		AllowedOrigins:       []string{"http://localhost:3000"},
		ShutdownTimeout:      30 * time.Second,
		SessionSweepInterval: time.Minute,
		SeedDemoUser:         true,
		ClientSendBuffer:     256,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.AllowedOrigins = getEnvList("CORS_ORIGINS", cfg.AllowedOrigins)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)
	cfg.SessionSweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", cfg.SessionSweepInterval)
	cfg.TokenSigningSecret = getEnv("TOKEN_SIGNING_SECRET", cfg.TokenSigningSecret)
	cfg.SeedDemoUser = getEnvBool("SEED_DEMO_USER", cfg.SeedDemoUser)
	cfg.ClientSendBuffer = getEnvInt("CLIENT_SEND_BUFFER", cfg.ClientSendBuffer)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.AccessTokenTTL < 0 || c.RefreshTokenTTL < 0 {
		return fmt.Errorf("token TTLs must be non-negative")
	}
	if c.ClientSendBuffer <= 0 {
		return fmt.Errorf("client send buffer must be positive, got %d", c.ClientSendBuffer)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// OriginAllowed reports whether a browser origin may talk to the gateway.
// A "*" entry allows every origin, but only listed origins get credentialed
// CORS responses (see OriginListed).
func (c *Config) OriginAllowed(origin string) bool {
	return c.OriginListed(origin) || c.AnyOriginAllowed()
}

// OriginListed reports whether origin appears explicitly in AllowedOrigins.
func (c *Config) OriginListed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed != "*" && strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (c *Config) AnyOriginAllowed() bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
