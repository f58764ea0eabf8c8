// Package notify sends the two emails that follow an accepted submission:
// the admin notice and the auto-reply to the submitter.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"text/template"

	"github.com/imrishuroy/go-formflow/internal/forms"
	"github.com/imrishuroy/go-formflow/internal/mail"
)

// ErrMailSendFailed wraps transport errors. It is logged, never returned to
// the request.
var ErrMailSendFailed = errors.New("mail send failed")

// Config holds the fixed addresses used for every message.
type Config struct {
	AdminTo  string
	Bcc      string // optional
	From     string // domain-verified mailbox, also the envelope sender
	SiteName string
	BaseURL  string
}

// Result reports which sends succeeded.
type Result struct {
	AdminSent bool
	UserSent  bool
}

type templateData struct {
	SiteName string
	BaseURL  string
	Sub      forms.Submission
}

type kindTemplates struct {
	adminSubject, adminBody *template.Template
	userSubject, userBody   *template.Template
}

// Dispatcher renders per-kind templates and hands messages to a mail.Sender.
type Dispatcher struct {
	sender    mail.Sender
	cfg       Config
	logger    *log.Logger
	templates map[forms.Kind]kindTemplates
}

// NewDispatcher parses the templates of every definition up front so a broken
// template fails at startup rather than on a request.
func NewDispatcher(sender mail.Sender, cfg Config, defs map[forms.Kind]forms.Definition, logger *log.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{
		sender:    sender,
		cfg:       cfg,
		logger:    logger,
		templates: map[forms.Kind]kindTemplates{},
	}
	for kind, def := range defs {
		var kt kindTemplates
		var err error
		name := string(kind)
		if kt.adminSubject, err = template.New(name + "-admin-subject").Parse(def.Admin.Subject); err != nil {
			return nil, fmt.Errorf("parse %s admin subject: %w", kind, err)
		}
		if kt.adminBody, err = template.New(name + "-admin-body").Parse(def.Admin.Body); err != nil {
			return nil, fmt.Errorf("parse %s admin body: %w", kind, err)
		}
		if kt.userSubject, err = template.New(name + "-user-subject").Parse(def.AutoReply.Subject); err != nil {
			return nil, fmt.Errorf("parse %s auto-reply subject: %w", kind, err)
		}
		if kt.userBody, err = template.New(name + "-user-body").Parse(def.AutoReply.Body); err != nil {
			return nil, fmt.Errorf("parse %s auto-reply body: %w", kind, err)
		}
		d.templates[kind] = kt
	}
	return d, nil
}

// Notify sends the admin notice and then the auto-reply. The two attempts are
// independent; failures are logged and reported in Result.
func (d *Dispatcher) Notify(ctx context.Context, sub forms.Submission) Result {
	var res Result
	kt, ok := d.templates[sub.Kind]
	if !ok {
		d.logger.Printf("[%s] no templates for kind; mail skipped", sub.Kind)
		return res
	}
	data := templateData{SiteName: d.cfg.SiteName, BaseURL: d.cfg.BaseURL, Sub: sub}

	admin, err := d.compose(kt.adminSubject, kt.adminBody, data)
	if err == nil {
		admin.To = []string{d.cfg.AdminTo}
		if d.cfg.Bcc != "" {
			admin.Bcc = []string{d.cfg.Bcc}
		}
		admin.ReplyTo = sub.Email
		err = d.send(ctx, admin)
	}
	res.AdminSent = err == nil
	d.logResult(sub.Kind, "Admin mail", err)

	user, err := d.compose(kt.userSubject, kt.userBody, data)
	if err == nil {
		user.To = []string{sub.Email}
		user.ReplyTo = d.cfg.AdminTo
		err = d.send(ctx, user)
	}
	res.UserSent = err == nil
	d.logResult(sub.Kind, "Auto-reply", err)

	return res
}

func (d *Dispatcher) compose(subject, body *template.Template, data templateData) (mail.Message, error) {
	var s, b bytes.Buffer
	if err := subject.Execute(&s, data); err != nil {
		return mail.Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := body.Execute(&b, data); err != nil {
		return mail.Message{}, fmt.Errorf("render body: %w", err)
	}
	return mail.Message{
		FromName:     d.cfg.SiteName,
		From:         d.cfg.From,
		EnvelopeFrom: d.cfg.From,
		Subject:      s.String(),
		Body:         b.String(),
	}, nil
}

func (d *Dispatcher) send(ctx context.Context, msg mail.Message) error {
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMailSendFailed, err)
	}
	return nil
}

func (d *Dispatcher) logResult(kind forms.Kind, what string, err error) {
	if err != nil {
		d.logger.Printf("[%s] %s FAILED: %v", kind, what, err)
		return
	}
	d.logger.Printf("[%s] %s sent", kind, what)
}
