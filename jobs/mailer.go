package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
)

// SMTPMailer sends plain-text mail through an SMTP relay such as Mailpit.
type SMTPMailer struct {
	Addr string
	From string
	// send defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer constructs an SMTPMailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{Addr: net.JoinHostPort(host, strconv.Itoa(port)), From: from, send: smtp.SendMail}
}

// Send composes msg as RFC 5322 and relays it.
func (m *SMTPMailer) Send(ctx context.Context, msg SendEmailPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := ComposeMessage(m.From, msg, time.Now())
	if err != nil {
		return err
	}
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(m.Addr, nil, m.From, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// ComposeMessage renders a single-part text/plain message.
func ComposeMessage(from string, msg SendEmailPayload, at time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(at)
	h.SetAddressList("From", []*mail.Address{{Address: from, Name: "OCTABOX"}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("compose message: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("compose message: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compose message: %w", err)
	}
	return buf.Bytes(), nil
}
