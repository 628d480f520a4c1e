package validator

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// NationalIDLength is the exact length of a customer's national ID.
const NationalIDLength = 8

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names so errors match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Register custom "notblank" validator - rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// "nationalid" accepts exactly eight characters with no whitespace
	_ = v.RegisterValidation("nationalid", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return ValidNationalID(str)
	})

	return v
}

// ValidNationalID reports whether id is a well-formed national ID.
func ValidNationalID(id string) bool {
	if utf8.RuneCountInString(id) != NationalIDLength {
		return false
	}
	return strings.IndexFunc(id, unicode.IsSpace) < 0
}
