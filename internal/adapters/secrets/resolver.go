package secrets

import (
	"context"
	"strings"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// RefPrefix marks a stored value as a secret reference rather than a literal.
const RefPrefix = "secret://"

// IsRef reports whether value is a secret reference.
func IsRef(value string) bool {
	return strings.HasPrefix(value, RefPrefix)
}

// Resolve returns the literal value, dereferencing through the secret manager
// when value carries the reference prefix. Empty input stays empty.
func Resolve(ctx context.Context, sm ports.SecretManager, value string) (string, error) {
	if value == "" || !IsRef(value) {
		return value, nil
	}
	secret, err := sm.GetSecret(ctx, strings.TrimPrefix(value, RefPrefix))
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}
