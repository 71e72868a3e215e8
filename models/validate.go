package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError is one itemized entry of a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every field that failed validation.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		if fe.Field == "" {
			parts = append(parts, fe.Message)
			continue
		}
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Err returns nil when nothing was collected so callers can `return errs.Err()`.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

const dateMessage = "must be a date in RFC3339 or YYYY-MM-DD format"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(JSONTagName)
	return v
}

// JSONTagName reports fields by their json name. It is also registered on
// gin's binding engine so request errors and entity errors read the same.
func JSONTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateStruct(s any) ValidationErrors {
	return TranslateValidation(validate.Struct(s))
}

// TranslateValidation turns validator and json decoding errors into
// ValidationErrors. Any other error is returned as a single entry.
func TranslateValidation(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var existing ValidationErrors
	if errors.As(err, &existing) {
		return existing
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(ValidationErrors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fieldPath(fe.Namespace()), Message: describe(fe)})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Type == timeType {
			return ValidationErrors{{Field: typeErr.Field, Message: dateMessage}}
		}
		return ValidationErrors{{Field: typeErr.Field, Message: "must be of type " + typeErr.Type.String()}}
	}

	var parseErr *time.ParseError
	if errors.As(err, &parseErr) {
		return ValidationErrors{{Message: fmt.Sprintf("%q %s", parseErr.Value, dateMessage)}}
	}

	return ValidationErrors{{Message: err.Error()}}
}

// fieldPath drops the root struct name: "Booking.hotel.check_in" -> "hotel.check_in".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		switch {
		case isString:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case isCollection:
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max", "lte":
		switch {
		case isString:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case isCollection:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "gtfield", "gtefield":
		return "must be after " + fe.Param()
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
