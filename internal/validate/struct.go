package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report form field names instead of Go field names.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	})
	_ = val.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return reUsername.MatchString(fl.Field().String())
	})
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, ok := Phone(fl.Field().String())
		return ok
	})
	_ = val.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && d.IsPositive() && d.Exponent() >= -2
	})
	return val
}

// Struct validates s against its validate tags.
func Struct(s any) error {
	if err := v.Struct(s); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			return &ValidationError{Errors: ves}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with form-friendly messages.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field(), msgForTag(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields maps form field names to messages.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field()] = msgForTag(fe)
	}
	return out
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "eqfield":
		return "does not match"
	case "password":
		return "must be 8-64 characters with upper and lower case letters, a digit and a symbol"
	case "username":
		return "must be 3-30 letters, digits, dots, dashes or underscores"
	case "phone":
		return "must be a phone number"
	case "price":
		return "must be a positive amount with at most two decimals"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
