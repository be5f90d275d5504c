package notification

import (
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Mailer sends plain-text booking emails over SMTP. A nil Mailer is valid
// and means email delivery is disabled (in-app notifications still work).
type Mailer struct {
	client *mail.Client
	from   string
	log    zerolog.Logger
}

func NewMailer(host string, port int, username, password, from string, log zerolog.Logger) (*Mailer, error) {
	if host == "" {
		return nil, nil
	}

	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, err
	}

	return &Mailer{client: client, from: from, log: log}, nil
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return m.client.DialAndSend(msg)
}
