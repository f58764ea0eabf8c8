// Package mail composes plaintext messages and hands them to a transport.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	netmail "net/mail"
	"strings"
	"time"
)

// ErrHeaderInjection is returned when a header value contains a line break.
var ErrHeaderInjection = errors.New("header value contains line break")

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one plaintext email. EnvelopeFrom is the SMTP MAIL FROM /
// sendmail -f address used for bounces; From is the visible header.
type Message struct {
	FromName     string
	From         string
	EnvelopeFrom string
	To           []string
	Bcc          []string
	ReplyTo      string
	Subject      string
	Body         string
	Date         time.Time
}

// Recipients returns To followed by Bcc. Bcc never appears in the headers.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Bcc))
	out = append(out, m.To...)
	return append(out, m.Bcc...)
}

// Envelope returns EnvelopeFrom, falling back to From.
func (m Message) Envelope() string {
	if m.EnvelopeFrom != "" {
		return m.EnvelopeFrom
	}
	return m.From
}

// Bytes renders the message with CRLF line endings. Non-ASCII subjects are
// RFC 2047 B-encoded.
func (m Message) Bytes() ([]byte, error) {
	if len(m.To) == 0 {
		return nil, errors.New("message has no recipient")
	}
	for _, v := range append([]string{m.FromName, m.From, m.EnvelopeFrom, m.ReplyTo, m.Subject}, m.Recipients()...) {
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("%w: %q", ErrHeaderInjection, v)
		}
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	from := netmail.Address{Name: m.FromName, Address: m.From}
	header("From", from.String())
	header("To", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		header("Reply-To", m.ReplyTo)
	}
	if env := m.Envelope(); env != "" {
		header("Return-Path", "<"+env+">")
	}
	header("Subject", mime.BEncoding.Encode("UTF-8", m.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes(), nil
}
