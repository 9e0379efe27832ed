package mail

import (
	"context"
	"fmt"
	netmail "net/mail"

	gomail "github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	ImplicitTLS bool
	From        netmail.Address
}

type smtpMailer struct {
	config SMTPConfig
	client *gomail.Client
}

func NewSMTPMailer(config SMTPConfig) (Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(config.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(config.Username),
			gomail.WithPassword(config.Password),
		)
	}
	if config.ImplicitTLS {
		opts = append(opts, gomail.WithSSLPort(false))
	}
	client, err := gomail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &smtpMailer{config: config, client: client}, nil
}

func (m *smtpMailer) Send(ctx context.Context, mail Mail) error {
	if mail.renderErr != nil {
		return mail.renderErr
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.config.From.Name, m.config.From.Address); err != nil {
		return fmt.Errorf("failed to set mail sender: %w", err)
	}
	for _, to := range mail.To {
		if err := msg.AddToFormat(to.Name, to.Address); err != nil {
			return fmt.Errorf("failed to set mail recipient: %w", err)
		}
	}
	msg.Subject(mail.Subject)
	if mail.htmlBody != "" {
		msg.SetBodyString(gomail.TypeTextHTML, mail.htmlBody)
		if mail.textBody != "" {
			msg.AddAlternativeString(gomail.TypeTextPlain, mail.textBody)
		}
	} else {
		msg.SetBodyString(gomail.TypeTextPlain, mail.textBody)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
