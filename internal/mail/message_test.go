package mail

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"
)

func testMessage() Message {
	return Message{
		FromName:     "JBN Content Consultancy",
		From:         "noreply@example.com",
		EnvelopeFrom: "noreply@example.com",
		To:           []string{"info@example.com"},
		Bcc:          []string{"archive@example.com"},
		ReplyTo:      "jane@x.com",
		Subject:      "New download lead: Echoes of Valor — Chapter 1 (PDF)",
		Body:         "Line one\nLine two\n",
		Date:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestBytes_HeadersAndEncoding(t *testing.T) {
	raw, err := testMessage().Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	s := string(raw)

	for _, want := range []string{
		"From: \"JBN Content Consultancy\" <noreply@example.com>\r\n",
		"To: info@example.com\r\n",
		"Reply-To: jane@x.com\r\n",
		"Return-Path: <noreply@example.com>\r\n",
		"Subject: =?UTF-8?b?",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"\r\n\r\nLine one\r\nLine two\r\n",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("message missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "archive@example.com") {
		t.Fatal("Bcc must not appear in the rendered message")
	}
}

func TestBytes_ASCIISubjectUnchanged(t *testing.T) {
	m := testMessage()
	m.Subject = "Hello there"
	raw, _ := m.Bytes()
	if !strings.Contains(string(raw), "Subject: Hello there\r\n") {
		t.Fatalf("ascii subject should not be encoded:\n%s", raw)
	}
}

func TestBytes_RejectsHeaderInjection(t *testing.T) {
	m := testMessage()
	m.ReplyTo = "jane@x.com\r\nBcc: victim@example.com"
	if _, err := m.Bytes(); !errors.Is(err, ErrHeaderInjection) {
		t.Fatalf("expected ErrHeaderInjection, got %v", err)
	}
}

func TestRecipientsAndEnvelope(t *testing.T) {
	m := testMessage()
	if got := strings.Join(m.Recipients(), ","); got != "info@example.com,archive@example.com" {
		t.Fatalf("recipients: %s", got)
	}
	m.EnvelopeFrom = ""
	if m.Envelope() != "noreply@example.com" {
		t.Fatal("envelope should fall back to From")
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := LogSender{Logger: log.New(&buf, "", 0)}
	if err := s.Send(context.Background(), testMessage()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "to=info@example.com") {
		t.Fatalf("unexpected log: %s", buf.String())
	}
}
