package secrets

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// AWSConfig configures the AWS Secrets Manager backend.
type AWSConfig struct {
	// AWS region, e.g. "ap-south-1".
	Region string

	// Optional profile name for local development.
	Profile string

	// Optional custom endpoint for LocalStack testing.
	Endpoint string

	CacheTTL    time.Duration
	EnableCache bool
}

// DefaultAWSConfig returns a config with caching enabled.
func DefaultAWSConfig(region string) *AWSConfig {
	return &AWSConfig{
		Region:      region,
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

type awsSecretManager struct {
	client *secretsmanager.Client
	logger *zap.Logger
	cache  *secretCache
}

// NewAWSSecretManager creates an AWS Secrets Manager backed secret manager.
// Credentials come from the default chain (IAM role in production, the named
// profile locally).
func NewAWSSecretManager(ctx context.Context, cfg *AWSConfig, logger *zap.Logger) (ports.SecretManager, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOpts := []func(*secretsmanager.Options){}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager backend initialized",
		zap.String("region", cfg.Region),
		zap.Bool("cache_enabled", cfg.EnableCache),
	)

	return &awsSecretManager{
		client: secretsmanager.NewFromConfig(awsCfg, clientOpts...),
		logger: logger.Named("AWSSecretManager"),
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

func (m *awsSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := m.cache.get(path); cached != nil {
		return cached, nil
	}

	result, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		m.logger.Error("failed to retrieve secret", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", path)
	}

	secret := &ports.Secret{
		Value:   *result.SecretString,
		Version: aws.ToString(result.VersionId),
	}
	m.cache.set(path, secret)
	return secret, nil
}
