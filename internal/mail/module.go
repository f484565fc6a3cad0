package mail

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/config"
)

func NewModule() fx.Option {
	return fx.Provide(
		fx.Annotate(
			func(config *config.AppConfig) *SMTPTransport {
				return NewSMTPTransport(&config.Mail)
			},
			fx.As(new(Transport)),
		),
		func(config *config.AppConfig, transport Transport, log *zap.Logger) *Gateway {
			return NewGateway(&config.Mail, transport, log)
		},
	)
}
