// Package email provides the outbound mail transport for LeadPipe.
//
// The delivery engine depends only on the Transport interface; the SMTP
// implementation here is the single production transport.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Transport sends a single plaintext email. Implementations must return an
// error rather than panic across the delivery-engine boundary; every failure
// kind (connection, auth, rejected recipient) is treated uniformly by the
// caller.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPTransport delivers mail through an SMTP relay with STARTTLS.
type SMTPTransport struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(host string, port int, username, password, fromName, fromEmail string) *SMTPTransport {
	return &SMTPTransport{
		dialer:    gomail.NewDialer(host, port, username, password),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers one plaintext message. The context is checked before
// dialing; gomail itself has no context support, so cancellation is
// best-effort between deliveries.
func (t *SMTPTransport) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.fromEmail, t.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := t.dialer.DialAndSend(m); err != nil {
		slog.Debug("SMTPTransport.Send: delivery failed", "to", to, "error", err)
		return fmt.Errorf("smtp delivery to %s failed: %w", to, err)
	}
	return nil
}
