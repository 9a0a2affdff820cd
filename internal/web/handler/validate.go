package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate runs struct validation and flattens the failures into one message
// suitable for a 400 response body. Returns "" when the struct is valid.
func Validate(data interface{}) string {
	errs := validate.Struct(data)
	if errs == nil {
		return ""
	}

	var fields []string

	validationErrors, ok := errs.(validator.ValidationErrors) //nolint:errorlint // library contract
	if !ok {
		return "invalid request body"
	}

	for _, err := range validationErrors {
		fields = append(fields, err.Field()+" failed on "+err.Tag())
	}

	return strings.Join(fields, "; ")
}
