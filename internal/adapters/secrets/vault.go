package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// VaultConfig configures the HashiCorp Vault secret backend.
type VaultConfig struct {
	// Vault server address, e.g. "https://vault.example.com:8200".
	Address string

	// Token for token authentication.
	Token string

	// Vault namespace (Vault Enterprise).
	Namespace string

	// KV secrets engine mount path (default "secret").
	MountPath string

	// KV version, "v1" or "v2" (default "v2").
	KVVersion string

	CacheTTL    time.Duration
	EnableCache bool
}

// DefaultVaultConfig returns a config with sensible defaults for address.
func DefaultVaultConfig(address, token string) *VaultConfig {
	return &VaultConfig{
		Address:     address,
		Token:       token,
		MountPath:   "secret",
		KVVersion:   "v2",
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

type vaultSecretManager struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultSecretManager creates a Vault-backed secret manager using token
// authentication.
func NewVaultSecretManager(cfg *VaultConfig, logger *zap.Logger) (ports.SecretManager, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("vault token is required")
	}
	client.SetToken(cfg.Token)

	logger.Info("Vault secret backend initialized",
		zap.String("address", cfg.Address),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &vaultSecretManager{
		client: client,
		config: cfg,
		logger: logger.Named("VaultSecretManager"),
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

func (m *vaultSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := m.cache.get(path); cached != nil {
		return cached, nil
	}

	var fullPath string
	if m.config.KVVersion == "v2" {
		fullPath = fmt.Sprintf("%s/data/%s", m.config.MountPath, path)
	} else {
		fullPath = fmt.Sprintf("%s/%s", m.config.MountPath, path)
	}

	secret, err := m.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		m.logger.Error("failed to read secret from Vault", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	var secretData map[string]interface{}
	version := "1"
	if m.config.KVVersion == "v2" {
		data, ok := secret.Data["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid secret format from Vault")
		}
		secretData = data
		if metadata, ok := secret.Data["metadata"].(map[string]interface{}); ok {
			if v, ok := metadata["version"].(json.Number); ok {
				version = v.String()
			}
		}
	} else {
		secretData = secret.Data
	}

	// The secret value lives under the "value" key by convention.
	var secretValue string
	if val, ok := secretData["value"].(string); ok {
		secretValue = val
	} else {
		for _, v := range secretData {
			if str, ok := v.(string); ok {
				secretValue = str
				break
			}
		}
	}
	if secretValue == "" {
		return nil, fmt.Errorf("secret value is empty: %s", path)
	}

	result := &ports.Secret{
		Value:    secretValue,
		Version:  version,
		Metadata: make(map[string]string),
	}
	for k, v := range secretData {
		if str, ok := v.(string); ok && k != "value" {
			result.Metadata[k] = str
		}
	}

	m.cache.set(path, result)
	return result, nil
}
