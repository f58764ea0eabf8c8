package validation

import (
	"strconv"
	"strings"

	"github.com/imrishuroy/go-formflow/internal/forms"
)

// FormRequest is the raw body of any submit endpoint. Which fields are required
// depends on the form kind; the struct tags only carry rules common to all kinds.
type FormRequest struct {
	Name     string `form:"name" json:"name" validate:"max=200"`
	Email    string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	Message  string `form:"message" json:"message" validate:"max=10000"`
	Resource string `form:"resource" json:"resource" validate:"max=200,known_resource"`
	Source   string `form:"source" json:"source" validate:"max=200"`
	FormName string `form:"form_name" json:"form_name" validate:"max=100"`

	// anti-abuse fields, checked by the guard before validation
	CSRF     string `form:"csrf" json:"csrf"`
	TS       string `form:"ts" json:"ts"`
	Honeypot string `form:"middle_initial_alt" json:"middle_initial_alt"`
}

// Value returns the field with the given form name.
func (r FormRequest) Value(field string) string {
	switch field {
	case forms.FieldName:
		return r.Name
	case forms.FieldEmail:
		return r.Email
	case forms.FieldMessage:
		return r.Message
	case forms.FieldResource:
		return r.Resource
	case forms.FieldSource:
		return r.Source
	case forms.FieldFormName:
		return r.FormName
	case forms.FieldCSRF:
		return r.CSRF
	case forms.FieldTS:
		return r.TS
	case forms.FieldHoneypot:
		return r.Honeypot
	}
	return ""
}

// RenderedAt parses the ts field as unix seconds. Missing or malformed values
// yield 0, which disables the time-trap.
func (r FormRequest) RenderedAt() int64 {
	ts, err := strconv.ParseInt(strings.TrimSpace(r.TS), 10, 64)
	if err != nil {
		return 0
	}
	return ts
}
