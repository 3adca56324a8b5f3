package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/adapters/secrets"
	"github.com/cinepos/concession-service/internal/config"
	"github.com/cinepos/concession-service/internal/domain/ports"
)

// initSecretManager selects the secret backend from configuration.
// Supports:
//   - "env" (development): secrets read from environment variables
//   - "vault": HashiCorp Vault, token auth (VAULT_ADDR, VAULT_TOKEN)
//   - "aws": AWS Secrets Manager, default credential chain (AWS_REGION)
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) ports.SecretManager {
	switch cfg.Secrets.Backend {
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress, cfg.Secrets.VaultToken)
		vaultCfg.Namespace = cfg.Secrets.VaultNamespace
		sm, err := secrets.NewVaultSecretManager(vaultCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Vault secret manager", zap.Error(err))
		}
		return sm

	case "aws":
		awsCfg := secrets.DefaultAWSConfig(cfg.Secrets.AWSRegion)
		awsCfg.Profile = cfg.Secrets.AWSProfile
		sm, err := secrets.NewAWSSecretManager(ctx, awsCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize AWS secret manager", zap.Error(err))
		}
		return sm

	case "env":
		logger.Warn("Using environment secret manager - not for production use")
		return secrets.NewEnvSecretManager(cfg.Secrets.EnvPrefix, logger)

	default:
		logger.Warn("Unknown SECRET_MANAGER, falling back to env",
			zap.String("secret_manager", cfg.Secrets.Backend))
		return secrets.NewEnvSecretManager(cfg.Secrets.EnvPrefix, logger)
	}
}
