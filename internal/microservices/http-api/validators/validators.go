// Package validators holds the standalone value checks shared by DTO binding and services.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

const (
	MinScore = 1
	MaxScore = 10
)

var (
	ErrFutureYear  = errors.New("year cannot be greater than the current year")
	ErrScoreRange  = fmt.Errorf("score must be between %d and %d", MinScore, MaxScore)
	ErrInvalidSlug = errors.New("slug may contain only lowercase latin letters, digits and hyphens")
)

// now is swapped in tests
var now = time.Now

// ValidateYear rejects years after the current one.
func ValidateYear(year int) error {
	if year > now().Year() {
		return ErrFutureYear
	}
	return nil
}

// ValidateScore rejects scores outside [MinScore, MaxScore].
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrScoreRange
	}
	return nil
}

// ValidateSlug checks s is a URL-safe slug as produced by slug.Make.
func ValidateSlug(s string) error {
	if !slug.IsSlug(s) {
		return ErrInvalidSlug
	}
	return nil
}

// RegisterBindings adds the `notfuture`, `score` and `slug` tags to gin's validator engine.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	// report json names so field errors match the request body
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return ValidateYear(int(fl.Field().Int())) == nil
	}); err != nil {
		return fmt.Errorf("register notfuture: %w", err)
	}
	if err := v.RegisterValidation("score", func(fl validator.FieldLevel) bool {
		return ValidateScore(int(fl.Field().Int())) == nil
	}); err != nil {
		return fmt.Errorf("register score: %w", err)
	}
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return ValidateSlug(fl.Field().String()) == nil
	}); err != nil {
		return fmt.Errorf("register slug: %w", err)
	}
	return nil
}

// MessageFor renders a field-level message for a failed validator tag.
func MessageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "notfuture":
		return ErrFutureYear.Error()
	case "score":
		return ErrScoreRange.Error()
	case "slug":
		return ErrInvalidSlug.Error()
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
