package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/config"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		SecretKey:            "test-secret-key",
		Algorithm:            "HS256",
		AccessTokenDuration:  30 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		EmailTokenDuration:   600 * time.Second,
	}
}

func newTestCodec(t *testing.T) *TokenCodec {
	codec, err := NewTokenCodec(newTestConfig())
	require.NoError(t, err)
	return codec
}

func newTestHasher(t *testing.T, scheme string, deprecated ...string) *Hasher {
	h, err := NewHasher(&config.HashingConfig{
		Scheme:     scheme,
		Deprecated: deprecated,
		BcryptCost: 4,
	})
	require.NoError(t, err)
	return h
}
