// Package mail delivers the outbound verification emails raised by staff
// registration. Delivery is plain SMTP with optional TLS; when mail is
// disabled the mailer is a no-op so registration still works in development
// environments without an SMTP server.
package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"text/template"

	"github.com/admin-console/admin-console/internal/config"
	"github.com/admin-console/admin-console/internal/telemetry"
)

// Sender delivers account emails. Handlers depend on this interface so tests
// can substitute a capture implementation.
type Sender interface {
	SendVerificationEmail(toEmail, name, verifyURL string) error
}

// Mailer sends mail through the configured SMTP server.
type Mailer struct {
	cfg config.MailConfig
}

// NewMailer creates a Mailer from configuration.
func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether outbound mail is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.SMTP.Host != ""
}

var verificationBody = template.Must(template.New("verification").Parse(
	`Hello {{.Name}},

An administrator account was created for you on the admin console.
Before you can sign in, please verify your email address by opening
the link below:

  {{.VerifyURL}}

The link expires in 24 hours. If you did not expect this email, you
can safely ignore it.

`))

// SendVerificationEmail composes and delivers the address-verification email.
// When mail is disabled the message is logged instead of sent so development
// setups can copy the link from the log.
func (m *Mailer) SendVerificationEmail(toEmail, name, verifyURL string) error {
	if !m.Enabled() {
		slog.Info("Mail disabled, skipping verification email",
			"to", toEmail,
			"verify_url", verifyURL)
		return nil
	}

	var body bytes.Buffer
	err := verificationBody.Execute(&body, struct {
		Name      string
		VerifyURL string
	}{Name: name, VerifyURL: verifyURL})
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}

	subject := "Verify your email address"
	if err := m.send(toEmail, subject, body.String()); err != nil {
		return err
	}

	telemetry.VerificationEmailsSentTotal.Inc()
	return nil
}

// send delivers one plain-text message via SMTP.
func (m *Mailer) send(toEmail, subject, body string) error {
	smtpCfg := &m.cfg.SMTP
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		smtpCfg.From, toEmail, subject,
	)
	msg := []byte(headers + body + "\r\n")

	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)
	auth := smtp.PlainAuth("", smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)

	if smtpCfg.UseTLS {
		return sendMailTLS(addr, smtpCfg.Host, auth, smtpCfg.From, []string{toEmail}, msg)
	}
	return smtp.SendMail(addr, auth, smtpCfg.From, []string{toEmail}, msg)
}

// sendMailTLS connects via implicit TLS (port 465 / SMTPS) and sends a message.
// Use this when UseTLS=true and the port is 465; for port 587 STARTTLS,
// smtp.SendMail handles the upgrade automatically — but we call this path for
// both so the config is unambiguous: UseTLS=true always means an encrypted
// connection.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		// Fall back to STARTTLS via the standard smtp.SendMail path (port 587 pattern)
		return smtp.SendMail(addr, auth, from, to, msg)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}
