package serializers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/travel-listings-be/internal/services"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so messages line up with the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// addValidatorErrors records validator failures on verr. field overrides the
// reported name, which validate.Var leaves empty.
func addValidatorErrors(verr *services.ValidationError, field string, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(field, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		verr.Add(name, messageFor(fe))
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.String {
			return "This field may not be blank."
		}
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "alphanum":
		return "Enter a valid username. This value may contain only letters and numbers."
	default:
		return "Invalid value."
	}
}
