package scheduling

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/physiocare/clinic/pkg/types"
)

// newValidator reports field errors by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationFailure converts validator output into a clinic validation error
func validationFailure(message string, err error) error {
	details := make(map[string]interface{})

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		var problems []string
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		message = fmt.Sprintf("%s: %s", message, strings.Join(problems, ", "))
	}

	return types.NewValidationError(types.ErrCodeInvalidInput, message, details)
}
