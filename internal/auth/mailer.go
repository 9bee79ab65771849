package auth

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

// Mailer delivers password reset tokens. Mail transport is an external
// collaborator; implementations must not block the request longer than a
// single delivery attempt.
type Mailer interface {
	SendPasswordResetToken(ctx context.Context, email, token string) error
}

// SMTPMailer sends reset tokens through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func (m *SMTPMailer) SendPasswordResetToken(_ context.Context, email, token string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: ADList password reset\r\n\r\n"+
		"Your password reset token is %s. It expires in 10 minutes.\r\n",
		m.From, email, token)
	return smtp.SendMail(m.Addr, m.Auth, m.From, []string{email}, []byte(msg))
}

// LogMailer logs tokens instead of sending them. Dev/test only.
type LogMailer struct{}

func (LogMailer) SendPasswordResetToken(_ context.Context, email, token string) error {
	log.Info().Str("email", email).Str("token", token).Msg("password reset token (dev mailer)")
	return nil
}
