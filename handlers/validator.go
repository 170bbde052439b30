package handlers

import (
	"errors"
	"reflect"
	"strings"

	"edgegateway/service"

	"github.com/go-playground/validator/v10"
)

// requestValidator implements echo.Validator with struct tags. Field names in messages are the JSON names.
type requestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates the echo.Validator used by HTTPServer handlers.
func NewRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// Validate returns bad_parameter listing every failing field, or nil.
func (r *requestValidator) Validate(i any) error {
	err := r.validate.Struct(i)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return service.NewBadParameterError("validation failed", err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, e.Field()+": "+describeFieldError(e))
	}
	return service.NewBadParameterError(strings.Join(messages, "; "), err)
}

func describeFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "excludesall":
		return "must not contain any of " + e.Param()
	case "hostname_rfc1123|ip":
		return "must be a hostname or an IP address"
	default:
		return "is invalid"
	}
}
