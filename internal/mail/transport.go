package mail

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"os/exec"
	"strings"
)

// SendmailSender pipes messages to a sendmail-compatible binary with an
// explicit envelope sender (-f) so bounces reach the configured mailbox.
type SendmailSender struct {
	Path string
}

func (s SendmailSender) Send(ctx context.Context, msg Message) error {
	raw, err := msg.Bytes()
	if err != nil {
		return err
	}
	path := s.Path
	if path == "" {
		path = "/usr/sbin/sendmail"
	}
	args := []string{"-i"}
	if env := msg.Envelope(); env != "" {
		args = append(args, "-f", env)
	}
	args = append(args, "--")
	args = append(args, msg.Recipients()...)

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(raw)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sendmail: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// SMTPSender submits messages to an SMTP relay. Auth is PLAIN when a
// username is set.
type SMTPSender struct {
	Addr     string // host:port
	Username string
	Password string
}

func (s SMTPSender) Send(ctx context.Context, msg Message) error {
	raw, err := msg.Bytes()
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if s.Username != "" {
		host, _, err := net.SplitHostPort(s.Addr)
		if err != nil {
			return fmt.Errorf("smtp addr %q: %w", s.Addr, err)
		}
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	if err := smtp.SendMail(s.Addr, auth, msg.Envelope(), msg.Recipients(), raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes a one-line summary instead of delivering. Used for local runs.
type LogSender struct {
	Logger *log.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	if _, err := msg.Bytes(); err != nil {
		return err
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("mail (log transport) to=%s bcc=%s reply-to=%s subject=%q",
		strings.Join(msg.To, ","), strings.Join(msg.Bcc, ","), msg.ReplyTo, msg.Subject)
	return nil
}
