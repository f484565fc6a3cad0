package account

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/auth"
	"github.com/elskow/account-service/internal/mail"
	"github.com/elskow/account-service/internal/user"
)

// NewModule returns the account module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide service
			fx.Annotate(
				func(log *zap.Logger, repo user.Repository, hasher *auth.Hasher, tokens *auth.TokenCodec, gateway *mail.Gateway) (*Service, error) {
					return NewService(log, repo, hasher, tokens, gateway)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
		),
	)
}
