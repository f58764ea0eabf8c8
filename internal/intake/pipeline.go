// Package intake sequences a submission through guard, validation, the record
// store and notification, and turns the result into an HTTP outcome.
package intake

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-formflow/internal/catalog"
	"github.com/imrishuroy/go-formflow/internal/forms"
	"github.com/imrishuroy/go-formflow/internal/guard"
	"github.com/imrishuroy/go-formflow/internal/records"
	"github.com/imrishuroy/go-formflow/internal/validation"
)

// Metric names.
const (
	MetricAccepted      = "SubmissionAccepted"
	MetricRejected      = "SubmissionRejected"
	MetricStorageFailed = "StorageFailed"
	MetricMailFailed    = "MailFailed"
)

// Deps groups the collaborators of a Pipeline. Events and Metrics are optional.
type Deps struct {
	Definitions map[forms.Kind]forms.Definition
	Guard       Checker
	Catalog     Resolver
	Store       Appender
	Notifier    Notifier
	Events      EventPublisher
	Metrics     Counter
	Logger      *log.Logger

	BaseURL string
	DocRoot string // enables the advisory on-disk check for resources
}

// Pipeline handles submissions for every registered form kind.
type Pipeline struct {
	deps     Deps
	validate *validatorv10.Validate
	logger   *log.Logger
	nowFunc  func() time.Time
	newID    func() string
}

// New returns a Pipeline.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		deps:     deps,
		validate: validation.New(deps.Catalog),
		logger:   logger,
		nowFunc:  time.Now,
		newID:    uuid.NewString,
	}
}

// Handle runs one submission to a terminal state. It never panics on
// collaborator failures and never returns an error; every failure is either an
// Outcome status or a log line.
func (p *Pipeline) Handle(ctx context.Context, req Request) Outcome {
	def, ok := p.deps.Definitions[req.Kind]
	if !ok {
		return Outcome{State: StateRejected, Status: http.StatusNotFound, Body: "Not found", Err: ErrUnknownForm}
	}

	// Received
	if req.Method != http.MethodPost {
		p.logger.Printf("[%s] 405 – non-POST request (%s)", def.Kind, req.Method)
		return p.reject(ctx, def, "method", http.StatusMethodNotAllowed, "Method not allowed", ErrMethodNotAllowed)
	}

	form := validation.Restrict(validation.Sanitize(req.Form), def.Fields())

	err := p.deps.Guard.Check(ctx,
		guard.Policy{Kind: string(def.Kind), RequireCSRF: def.RequireCSRF},
		guard.Input{
			Honeypot:   form.Honeypot,
			RenderedAt: form.RenderedAt(),
			CSRF:       form.CSRF,
			SessionID:  req.Client.SessionID,
			IP:         req.Client.IP,
			UserAgent:  req.Client.UserAgent,
		})
	if err != nil {
		msg := "Invalid submission"
		reason := "abuse"
		var v *guard.Violation
		if errors.As(err, &v) {
			msg, reason = v.Message, v.Check
		}
		return p.reject(ctx, def, reason, http.StatusBadRequest, msg, err)
	}

	// GuardChecked
	if err := validation.Validate(p.validate, def.Required, form); err != nil {
		status, msg := def.ValidationFailure()
		p.logger.Printf("[%s] %d – invalid input: name=%q, email=%q, resource=%q (%v)",
			def.Kind, status, form.Name, form.Email, form.Resource, err)
		reason := "validation"
		if errors.Is(err, validation.ErrUnknownResource) {
			reason = "unknown_resource"
		}
		return p.reject(ctx, def, reason, status, msg, err)
	}

	// Validated
	sub := p.submission(def, form, req.Client)
	if sub.Resource != "" {
		p.resolveResource(def, &sub)
	}

	if err := p.deps.Store.Append(string(def.Kind), def.Row(sub)); err != nil {
		if errors.Is(err, records.ErrInit) {
			p.logger.Printf("[%s] 500 – storage init failed: %v", def.Kind, err)
			p.count(ctx, MetricStorageFailed, def.Kind)
			return Outcome{State: StateFailed, Status: http.StatusInternalServerError, Body: "Unable to initialize storage.", Err: err}
		}
		p.logger.Printf("[%s] CSV append FAIL: %s %s: %v", def.Kind, sub.Email, sub.Resource, err)
		p.count(ctx, MetricStorageFailed, def.Kind)
	} else {
		p.logger.Printf("[%s] CSV append OK: %s %s", def.Kind, sub.Email, sub.Resource)
	}

	// Persisted
	if p.deps.Events != nil {
		if err := p.deps.Events.Publish(ctx, sub); err != nil {
			p.logger.Printf("[%s] lead event publish failed: %v", def.Kind, err)
		}
	}

	res := p.deps.Notifier.Notify(ctx, sub)
	if !res.AdminSent || !res.UserSent {
		p.count(ctx, MetricMailFailed, def.Kind)
	}

	// Notified
	p.count(ctx, MetricAccepted, def.Kind)
	return Outcome{
		State:    StateRedirected,
		Status:   http.StatusFound,
		Location: def.Redirect(sub),
		Mail:     res,
	}
}

func (p *Pipeline) submission(def forms.Definition, form validation.FormRequest, c Client) forms.Submission {
	sub := forms.Submission{
		ID:          p.newID(),
		Kind:        def.Kind,
		Name:        form.Name,
		Email:       form.Email,
		Message:     form.Message,
		Resource:    form.Resource,
		Source:      form.Source,
		FormName:    form.FormName,
		IP:          c.IP,
		UserAgent:   c.UserAgent,
		SubmittedAt: p.nowFunc().Format(time.RFC3339),
	}
	if sub.Source == "" {
		sub.Source = def.DefaultSource
	}
	if sub.FormName == "" {
		sub.FormName = def.DefaultFormName
	}
	return sub
}

// resolveResource fills title and link. The key was already validated, so a
// miss here only happens if the catalog is swapped under us.
func (p *Pipeline) resolveResource(def forms.Definition, sub *forms.Submission) {
	entry, ok := p.deps.Catalog.Resolve(sub.Resource)
	if !ok {
		return
	}
	sub.ResourceTitle = entry.Title
	sub.ResourceLink = catalog.Link(p.deps.BaseURL, entry)
	if fsPath, ok := catalog.OnDisk(p.deps.DocRoot, entry); !ok {
		p.logger.Printf("[%s] WARNING: File not found on disk for %s => %s", def.Kind, sub.Resource, fsPath)
	}
}

func (p *Pipeline) reject(ctx context.Context, def forms.Definition, reason string, status int, body string, err error) Outcome {
	if p.deps.Metrics != nil {
		if merr := p.deps.Metrics.Count(ctx, MetricRejected, map[string]string{"FormKind": string(def.Kind), "Reason": reason}); merr != nil {
			p.logger.Printf("[%s] metric %s: %v", def.Kind, MetricRejected, merr)
		}
	}
	return Outcome{State: StateRejected, Status: status, Body: body, Err: err}
}

func (p *Pipeline) count(ctx context.Context, name string, kind forms.Kind) {
	if p.deps.Metrics == nil {
		return
	}
	if err := p.deps.Metrics.Count(ctx, name, map[string]string{"FormKind": string(kind)}); err != nil {
		p.logger.Printf("[%s] metric %s: %v", kind, name, err)
	}
}
