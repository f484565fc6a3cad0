package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/config"
)

// Purpose selects the wording of a confirmation mail and the endpoint its
// link points at.
type Purpose struct {
	Heading string
	Intro   string
	Path    string
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>{{.Heading}}</h2>
    <p>{{.Intro}}</p>
    <p><a href="{{.Link}}">{{.Link}}</a></p>
    <p>Confirmation token:</p>
    <p style="word-break: break-all; font-family: monospace;">{{.Token}}</p>
    <p style="margin-top: 30px; font-size: 12px; color: #666;">If you did not request this, you can safely ignore this email.</p>
</body>
</html>
`))

type Gateway struct {
	transport Transport
	baseURL   string
	log       *zap.Logger
}

func NewGateway(config *config.MailConfig, transport Transport, log *zap.Logger) *Gateway {
	return &Gateway{
		transport: transport,
		baseURL:   strings.TrimRight(config.LinkBaseURL, "/"),
		log:       log,
	}
}

// SendConfirmation mails token to recipients. Delivery errors are returned
// unchanged and never retried.
func (g *Gateway) SendConfirmation(ctx context.Context, recipients []string, subject, token string, purpose Purpose) error {
	body, err := g.render(token, purpose)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := g.transport.Send(ctx, Message{To: recipients, Subject: subject, HTML: body}); err != nil {
		g.log.Warn("failed to send confirmation email",
			zap.Strings("recipients", recipients),
			zap.Error(err))
		return err
	}

	g.log.Info("confirmation email sent", zap.Strings("recipients", recipients))
	return nil
}

func (g *Gateway) render(token string, purpose Purpose) (string, error) {
	link := g.baseURL + purpose.Path + "?token=" + url.QueryEscape(token)

	var buf bytes.Buffer
	err := confirmationTemplate.Execute(&buf, struct {
		Heading string
		Intro   string
		Link    string
		Token   string
	}{
		Heading: purpose.Heading,
		Intro:   purpose.Intro,
		Link:    link,
		Token:   token,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
