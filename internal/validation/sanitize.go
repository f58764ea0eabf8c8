package validation

import (
	"strings"
	"unicode"

	"github.com/imrishuroy/go-formflow/internal/forms"
)

// htmlSpecial are stripped from free-text fields before they reach the record
// store or an email body.
const htmlSpecial = `<>"'&`

// Clean trims s and removes control characters and HTML-special characters.
func Clean(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(htmlSpecial, r) {
			return -1
		}
		return r
	}, s))
}

// CleanMultiline is Clean for message bodies: line breaks and tabs survive,
// CRLF is normalised to LF.
func CleanMultiline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || strings.ContainsRune(htmlSpecial, r) {
			return -1
		}
		return r
	}, s))
}

// Sanitize returns a copy of r with every field cleaned.
func Sanitize(r FormRequest) FormRequest {
	return FormRequest{
		Name:     Clean(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Message:  CleanMultiline(r.Message),
		Resource: Clean(r.Resource),
		Source:   Clean(r.Source),
		FormName: Clean(r.FormName),
		CSRF:     strings.TrimSpace(r.CSRF),
		TS:       strings.TrimSpace(r.TS),
		Honeypot: strings.TrimSpace(r.Honeypot),
	}
}

// Restrict blanks every data field not listed in fields. Anti-abuse fields
// are always kept.
func Restrict(r FormRequest, fields []string) FormRequest {
	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	out := FormRequest{CSRF: r.CSRF, TS: r.TS, Honeypot: r.Honeypot}
	if keep[forms.FieldName] {
		out.Name = r.Name
	}
	if keep[forms.FieldEmail] {
		out.Email = r.Email
	}
	if keep[forms.FieldMessage] {
		out.Message = r.Message
	}
	if keep[forms.FieldResource] {
		out.Resource = r.Resource
	}
	if keep[forms.FieldSource] {
		out.Source = r.Source
	}
	if keep[forms.FieldFormName] {
		out.FormName = r.FormName
	}
	return out
}
