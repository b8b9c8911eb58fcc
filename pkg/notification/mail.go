package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mail sends watch alerts by e-mail
type Mail struct {
	auth              smtp.Auth
	smtpServerPort    int
	smtpServerAddress string
	to                string
	from              string
	subject           string
	send              func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// MailParams contains all parameters needed to initialize a Mail instance
type MailParams struct {
	SMTPServerPort    int
	SMTPServerAddress string
	To                string
	From              string
	Password          string
	Subject           string
}

// NewMail creates a new Mail instance with the provided parameters
func NewMail(params MailParams) *Mail {
	subject := params.Subject
	if subject == "" {
		subject = "Price alert"
	}

	return &Mail{
		from:              params.From,
		to:                params.To,
		subject:           subject,
		smtpServerPort:    params.SMTPServerPort,
		smtpServerAddress: params.SMTPServerAddress,
		auth: smtp.PlainAuth(
			"",
			params.From,
			params.Password,
			params.SMTPServerAddress,
		),
		send: smtp.SendMail,
	}
}

// Notify implements core.Notifier; the chat id is irrelevant for e-mail
func (m *Mail) Notify(_ context.Context, _ int64, text string) error {
	serverAddress := fmt.Sprintf("%s:%d", m.smtpServerAddress, m.smtpServerPort)

	err := m.send(serverAddress, m.auth, m.from, []string{m.to}, m.message(text))
	if err != nil {
		return fmt.Errorf("notification/mail: failed to send email: %w", err)
	}

	return nil
}

func (m *Mail) message(text string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", m.to)
	fmt.Fprintf(&sb, "From: \"pricewatch\" <%s>\r\n", m.from)
	fmt.Fprintf(&sb, "Subject: %s\r\n", m.subject)
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	sb.WriteString(text)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
