// Package forms holds the per-kind configuration record that drives the single
// submission pipeline: which fields are required, how a submission is projected
// into a stored row, anti-abuse policy, redirect target and email templates.
package forms

import "net/http"

// Kind identifies a form endpoint.
type Kind string

const (
	Contact    Kind = "contact"
	Newsletter Kind = "newsletter"
	Download   Kind = "download"
)

// Field names as posted by the site's forms.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldMessage  = "message"
	FieldResource = "resource"
	FieldSource   = "source"
	FieldFormName = "form_name"
	FieldCSRF     = "csrf"
	FieldTS       = "ts"
	// FieldHoneypot is never filled by the rendered form. The name is
	// deliberately bland so form-filling bots populate it.
	FieldHoneypot = "middle_initial_alt"
)

// Submission is one accepted, validated request. It lives for the duration of
// the request and is only persisted through Definition.Row.
type Submission struct {
	ID          string
	Kind        Kind
	Name        string
	Email       string
	Message     string
	Resource    string
	Source      string
	FormName    string
	IP          string
	UserAgent   string
	SubmittedAt string // ISO-8601

	// Resolved from the catalog for the download kind.
	ResourceTitle string
	ResourceLink  string
}

// Template is a text/template pair for one outgoing email.
type Template struct {
	Subject string
	Body    string
}

// Definition is the configuration record for one form kind.
type Definition struct {
	Kind Kind

	// Required lists form fields that must be non-empty after sanitizing.
	Required []string
	// Optional lists the other fields this kind collects. Anything else
	// posted to the endpoint is discarded.
	Optional []string

	// StoreFile is the record file name inside the storage directory.
	StoreFile string
	// Header is written once when the record file is created; Row must
	// return values in the same order.
	Header []string
	Row    func(s Submission) []string

	DefaultSource   string
	DefaultFormName string

	// RequireCSRF enforces the session token check for this kind.
	RequireCSRF bool

	ValidationStatus  int
	ValidationMessage string

	Redirect func(s Submission) string

	Admin     Template
	AutoReply Template
}

// Fields returns Required followed by Optional.
func (d Definition) Fields() []string {
	out := make([]string, 0, len(d.Required)+len(d.Optional))
	out = append(out, d.Required...)
	return append(out, d.Optional...)
}

// ValidationFailure returns the status and body used when input is rejected.
func (d Definition) ValidationFailure() (int, string) {
	if d.ValidationStatus == 0 {
		return http.StatusUnprocessableEntity, d.ValidationMessage
	}
	return d.ValidationStatus, d.ValidationMessage
}
