package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Auth     AuthConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds MongoDB configuration
type DatabaseConfig struct {
	URI      string
	Database string
}

// GatewayConfig holds payment gateway plumbing shared by all providers.
// Per-theater credentials live in the theater records, not here.
type GatewayConfig struct {
	// FrontendURL builds gateway return URLs; BackendURL builds notify URLs.
	FrontendURL string
	BackendURL  string
	// Timeout is the hard cap on one gateway API call, in seconds.
	Timeout int
	// StaleVerifyPolicy is "warn" or "reject" for verifications past the
	// verification window.
	StaleVerifyPolicy string
}

// AuthConfig holds JWT validation configuration. The secret may be a
// "secret://" reference resolved through the selected secret backend.
type AuthConfig struct {
	JWTSecret string
}

// SecretsConfig selects the secret backend: "env", "vault" or "aws".
type SecretsConfig struct {
	Backend string

	EnvPrefix string

	VaultAddress   string
	VaultToken     string
	VaultNamespace string

	AWSRegion  string
	AWSProfile string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("MONGODB_DATABASE", "concession"),
		},
		Gateway: GatewayConfig{
			FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
			BackendURL:        getEnv("BACKEND_URL", "http://localhost:8080"),
			Timeout:           getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 15),
			StaleVerifyPolicy: getEnv("STALE_VERIFY_POLICY", "warn"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Secrets: SecretsConfig{
			Backend:        getEnv("SECRET_MANAGER", "env"),
			EnvPrefix:      getEnv("SECRET_ENV_PREFIX", "SECRET"),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultNamespace: getEnv("VAULT_NAMESPACE", ""),
			AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),
			AWSProfile:     getEnv("AWS_PROFILE", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.URI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Gateway.StaleVerifyPolicy != "warn" && cfg.Gateway.StaleVerifyPolicy != "reject" {
		return nil, fmt.Errorf("STALE_VERIFY_POLICY must be warn or reject")
	}
	if cfg.Secrets.Backend == "vault" && cfg.Secrets.VaultAddress == "" {
		return nil, fmt.Errorf("VAULT_ADDR is required when SECRET_MANAGER=vault")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
