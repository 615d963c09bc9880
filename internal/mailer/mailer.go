// Package mailer delivers the transactional emails the account flows
// depend on: address verification, password reset and employee welcome
// credentials.  Registration treats a failed send as fatal and rolls the
// new account back, so errors here must be reliable, not best-effort.
package mailer

import (
	"fmt"
	"net/smtp"
)

// Mailer sends account emails.  Handlers depend on this interface so tests
// can capture outgoing mail without a relay.
type Mailer interface {
	SendVerification(to, token string) error
	SendPasswordReset(to, token string) error
	SendEmployeeWelcome(to, username, tempPassword, token string) error
}

// SMTP is the production Mailer, talking plain AUTH SMTP to the relay
// configured in the environment.
type SMTP struct {
	Host      string
	Port      string
	User      string
	Pass      string
	From      string
	ClientURL string // base for the verification/reset links
}

func NewSMTP(host, port, user, pass, from, clientURL string) *SMTP {
	return &SMTP{Host: host, Port: port, User: user, Pass: pass, From: from, ClientURL: clientURL}
}

// send builds a minimal RFC 822 message and hands it to the relay.  An
// unconfigured relay is an error: the operations that call the mailer are
// specified to fail (and roll back) when the notification cannot be sent.
func (m *SMTP) send(to, subject, body string) error {
	if m.Host == "" || m.User == "" || m.Pass == "" {
		return fmt.Errorf("email service is not configured")
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.From, to, subject, body))
	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *SMTP) SendVerification(to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.ClientURL, token)
	return m.send(to, "Verify your Park Plaza account",
		"Please verify your email by visiting: "+link)
}

func (m *SMTP) SendPasswordReset(to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.ClientURL, token)
	return m.send(to, "Reset your Park Plaza password",
		"Reset your password by visiting: "+link)
}

func (m *SMTP) SendEmployeeWelcome(to, username, tempPassword, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.ClientURL, token)
	body := fmt.Sprintf(
		"Welcome to Park Plaza.\r\n\r\nUsername: %s\r\nTemporary password: %s\r\n\r\nVerify your email to activate the account: %s",
		username, tempPassword, link)
	return m.send(to, "Your Park Plaza employee account", body)
}
