package validation

import (
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// Bind decodes the request body (urlencoded, multipart or JSON, chosen by
// Content-Type) into out. It does not validate.
func Bind(c *gin.Context, out *FormRequest) error {
	return c.ShouldBind(out)
}

// Validate checks the kind's required fields and the common struct rules.
// It returns *FieldErrors or nil.
func Validate(v *validatorv10.Validate, required []string, req FormRequest) error {
	fields := map[string]string{}
	for _, name := range required {
		if err := v.Var(req.Value(name), "required"); err != nil {
			fields[name] = "required"
		}
	}

	if err := v.Struct(req); err != nil {
		for k, tag := range validationErrorsToMap(err) {
			if _, seen := fields[k]; !seen {
				fields[k] = tag
			}
		}
	}

	if len(fields) > 0 {
		return &FieldErrors{Fields: fields}
	}
	return nil
}
