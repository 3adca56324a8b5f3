package ports

import "context"

// Secret is a secret value with its metadata.
type Secret struct {
	Value    string
	Version  string
	Metadata map[string]string
}

// SecretManager resolves secret references. Theater gateway configs may store
// a reference (prefixed "secret://") instead of a literal webhook secret; the
// JWT signing key is resolved the same way at startup.
type SecretManager interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
