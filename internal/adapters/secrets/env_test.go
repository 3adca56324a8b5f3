package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

func TestEnvSecretManager(t *testing.T) {
	t.Setenv("SECRET_THEATERS_TH_1_WEBHOOK", "whsec-value")

	sm := NewEnvSecretManager("SECRET", zap.NewNop())
	secret, err := sm.GetSecret(context.Background(), "theaters/th-1/webhook")
	require.NoError(t, err)
	assert.Equal(t, "whsec-value", secret.Value)
	assert.Equal(t, "env", secret.Version)
}

func TestEnvSecretManager_NotSet(t *testing.T) {
	sm := NewEnvSecretManager("SECRET", zap.NewNop())
	_, err := sm.GetSecret(context.Background(), "theaters/absent/webhook")
	assert.Error(t, err)
}

func TestEnvSecretManager_NoPrefix(t *testing.T) {
	t.Setenv("JWT_SECRET", "signing-key")

	sm := NewEnvSecretManager("", zap.NewNop())
	secret, err := sm.GetSecret(context.Background(), "jwt.secret")
	require.NoError(t, err)
	assert.Equal(t, "signing-key", secret.Value)
}

func TestIsRef(t *testing.T) {
	assert.True(t, IsRef("secret://theaters/th-1/webhook"))
	assert.False(t, IsRef("plain-value"))
	assert.False(t, IsRef(""))
}

func TestResolve(t *testing.T) {
	t.Setenv("SECRET_WEBHOOK", "resolved-value")
	sm := NewEnvSecretManager("SECRET", zap.NewNop())

	// Literal values pass through untouched.
	value, err := Resolve(context.Background(), sm, "literal-secret")
	require.NoError(t, err)
	assert.Equal(t, "literal-secret", value)

	value, err = Resolve(context.Background(), sm, "")
	require.NoError(t, err)
	assert.Empty(t, value)

	// References dereference through the manager.
	value, err = Resolve(context.Background(), sm, "secret://webhook")
	require.NoError(t, err)
	assert.Equal(t, "resolved-value", value)

	_, err = Resolve(context.Background(), sm, "secret://missing")
	assert.Error(t, err)
}

func TestSecretCache(t *testing.T) {
	cache := newSecretCache(true, time.Minute)
	assert.Nil(t, cache.get("k"))

	cache.set("k", &ports.Secret{Value: "v"})
	got := cache.get("k")
	require.NotNil(t, got)
	assert.Equal(t, "v", got.Value)
}

func TestSecretCache_Expiry(t *testing.T) {
	cache := newSecretCache(true, -time.Second)
	cache.set("k", &ports.Secret{Value: "v"})
	assert.Nil(t, cache.get("k"))
}

func TestSecretCache_Disabled(t *testing.T) {
	cache := newSecretCache(false, time.Minute)
	cache.set("k", &ports.Secret{Value: "v"})
	assert.Nil(t, cache.get("k"))
}
