package mail

import (
	"context"
	"net/mail"
)

type Mail struct {
	To        []mail.Address
	Subject   string
	htmlBody  string
	textBody  string
	renderErr error
}

type MailOption func(*Mail)

func New(opts ...MailOption) Mail {
	var m Mail
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func To(addresses ...string) MailOption {
	return func(m *Mail) {
		for _, address := range addresses {
			m.To = append(m.To, mail.Address{Address: address})
		}
	}
}

func ToWithName(name, address string) MailOption {
	return func(m *Mail) {
		m.To = append(m.To, mail.Address{Name: name, Address: address})
	}
}

func Subject(subject string) MailOption {
	return func(m *Mail) { m.Subject = subject }
}

type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}
