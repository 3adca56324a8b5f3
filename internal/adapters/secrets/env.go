package secrets

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// envSecretManager resolves secret paths against process environment
// variables. Development only; production deployments select the Vault or
// AWS backend.
type envSecretManager struct {
	prefix string
	logger *zap.Logger
}

// NewEnvSecretManager creates an environment-variable-backed secret manager.
// A path like "theaters/t1/webhook" resolves to the variable
// PREFIX_THEATERS_T1_WEBHOOK.
func NewEnvSecretManager(prefix string, logger *zap.Logger) ports.SecretManager {
	return &envSecretManager{
		prefix: prefix,
		logger: logger.Named("EnvSecretManager"),
	}
}

func (m *envSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	name := m.envName(path)
	value := os.Getenv(name)
	if value == "" {
		m.logger.Warn("secret not set", zap.String("path", path), zap.String("env", name))
		return nil, &notFoundError{path: path}
	}
	return &ports.Secret{Value: value, Version: "env"}, nil
}

func (m *envSecretManager) envName(path string) string {
	name := strings.ToUpper(path)
	replacer := strings.NewReplacer("/", "_", "-", "_", ".", "_")
	name = replacer.Replace(name)
	if m.prefix != "" {
		return m.prefix + "_" + name
	}
	return name
}

type notFoundError struct {
	path string
}

func (e *notFoundError) Error() string {
	return "secret not found: " + e.path
}
