package remixusecase

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	validate := validator.New()

	// report fields by their JSON names, that's what the client sent
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return validate
}

// validationMessage describes the first failed field.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "The remix request is malformed"
	}

	fieldErr := fieldErrs[0]
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("Missing %s", fieldErr.Field())
	case "oneof":
		return fmt.Sprintf("Unknown %s '%v'. Must be one of: %s",
			fieldErr.Field(), fieldErr.Value(), strings.ReplaceAll(fieldErr.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s is not a valid URL", fieldErr.Field())
	default:
		return fmt.Sprintf("%s is invalid", fieldErr.Field())
	}
}
