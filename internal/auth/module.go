package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/config"
	"github.com/elskow/account-service/internal/user"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide hasher
			fx.Annotate(
				func(config *config.AppConfig) (*Hasher, error) {
					return NewHasher(&config.Hashing)
				},
			),
			// Provide token codec
			fx.Annotate(
				func(config *config.AppConfig) (*TokenCodec, error) {
					return NewTokenCodec(&config.Auth)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(codec *TokenCodec, repo user.Repository, log *zap.Logger) *AuthMiddleware {
					return NewAuthMiddleware(codec, repo, log)
				},
			),
		),
	)
}
