package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

var (
	// ErrInvalid is the root of every validation failure.
	ErrInvalid = errors.New("validation failed")
	// ErrUnknownResource is returned when the resource key is not in the catalog.
	ErrUnknownResource = fmt.Errorf("%w: unknown resource", ErrInvalid)
)

// FieldErrors maps form field names to the rule they failed.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

func (e *FieldErrors) Unwrap() error {
	if e.Fields["resource"] == "known_resource" {
		return ErrUnknownResource
	}
	return ErrInvalid
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
