package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Resolver reports whether a resource key exists in the catalog.
type Resolver interface {
	Has(key string) bool
}

// New returns a validator that reports fields by their form names and knows
// the known_resource tag, backed by resolver. A nil resolver accepts no keys.
func New(resolver Resolver) *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// empty keys pass here; presence is a per-kind requirement
	_ = v.RegisterValidation("known_resource", func(fl validatorv10.FieldLevel) bool {
		key := fl.Field().String()
		if key == "" {
			return true
		}
		return resolver != nil && resolver.Has(key)
	})

	return v
}
