package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/dunamismax/brandflow/internal/config"
	"github.com/dunamismax/brandflow/internal/domain"
)

const resultSubject = "Image Branding Results: Success"

// Mailer delivers the HTML summary over SMTP. Delivery is best-effort by
// contract: the orchestrator logs and swallows whatever Notify returns.
type Mailer struct {
	client *mail.Client
	sender string
}

func NewMailer(cfg config.SMTPConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &Mailer{
		client: client,
		sender: cfg.Sender,
	}, nil
}

func (m *Mailer) Notify(ctx context.Context, recipient string, res domain.PackagedResponse) error {
	body, err := RenderSummary(res)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return fmt.Errorf("set sender %s: %w", m.sender, err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("set recipient %s: %w", recipient, err)
	}
	msg.Subject(resultSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send result email to %s: %w", recipient, err)
	}
	return nil
}
