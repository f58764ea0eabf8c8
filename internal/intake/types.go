package intake

import (
	"context"

	"github.com/imrishuroy/go-formflow/internal/catalog"
	"github.com/imrishuroy/go-formflow/internal/forms"
	"github.com/imrishuroy/go-formflow/internal/guard"
	"github.com/imrishuroy/go-formflow/internal/notify"
	"github.com/imrishuroy/go-formflow/internal/validation"
)

// State is a position in the submission state machine.
type State string

const (
	StateReceived     State = "received"
	StateGuardChecked State = "guard_checked"
	StateValidated    State = "validated"
	StatePersisted    State = "persisted"
	StateNotified     State = "notified"
	StateRedirected   State = "redirected"
	StateRejected     State = "rejected"
	StateFailed       State = "failed"
)

// Terminal reports whether s ends processing.
func (s State) Terminal() bool {
	return s == StateRedirected || s == StateRejected || s == StateFailed
}

// Client describes who sent the request.
type Client struct {
	IP        string
	UserAgent string
	SessionID string
}

// Request is one incoming submission.
type Request struct {
	Kind   forms.Kind
	Method string
	Form   validation.FormRequest
	Client Client
}

// Outcome is the terminal result. Location is set only for StateRedirected.
type Outcome struct {
	State    State
	Status   int
	Body     string
	Location string
	Err      error
	Mail     notify.Result
}

// Appender persists one row for a kind (records.Store).
type Appender interface {
	Append(kind string, row []string) error
}

// Notifier sends the admin notice and auto-reply (notify.Dispatcher).
type Notifier interface {
	Notify(ctx context.Context, sub forms.Submission) notify.Result
}

// Checker runs the anti-abuse checks (guard.Guard).
type Checker interface {
	Check(ctx context.Context, p guard.Policy, in guard.Input) error
}

// Resolver looks up catalog entries (catalog.Catalog).
type Resolver interface {
	Resolve(key string) (catalog.Entry, bool)
	Has(key string) bool
}

// EventPublisher emits a lead event after persistence (leads.Publisher).
type EventPublisher interface {
	Publish(ctx context.Context, sub forms.Submission) error
}

// Counter records count metrics (aws.Metrics).
type Counter interface {
	Count(ctx context.Context, name string, dims map[string]string) error
}
