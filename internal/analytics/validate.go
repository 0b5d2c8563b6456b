package analytics

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one invalid request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the full set of field failures for a request
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "invalid request"
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Message
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

// newValidator builds the request validator with the analysis validators
// registered
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("iso8601", isISO8601)
	v.RegisterValidation("ticker", isValidTicker)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// validateStruct validates a request struct and converts failures into
// field-level messages
func (s *Service) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return out
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()
	param := err.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Replace(param, " ", ", ", -1))
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, param)
	case "iso8601":
		return fmt.Sprintf("%s must be a valid ISO8601 date", field)
	case "ticker":
		return fmt.Sprintf("%s must be a valid ticker symbol", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

// isISO8601 validates an ISO8601 calendar date (YYYY-MM-DD)
func isISO8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(dayFormat, fl.Field().String())
	return err == nil
}

// isValidTicker validates ticker symbol format. Vendor symbols run up to
// twelve characters of letters, digits, dots, and dashes (600519.SH style).
func isValidTicker(fl validator.FieldLevel) bool {
	ticker := fl.Field().String()
	if len(ticker) < 1 || len(ticker) > 12 {
		return false
	}
	for _, ch := range ticker {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '.' || ch == '-') {
			return false
		}
	}
	return true
}
