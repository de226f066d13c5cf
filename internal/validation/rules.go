// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

var (
	// secretNameRegex matches logical secret names such as "JWT_SECRET" or
	// "billing/stripe-api-key". No whitespace, no control characters.
	secretNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-/]{0,127}$`)

	// permissionRegex matches a single api key permission scope such as
	// "secrets:read" or "rotation:execute".
	permissionRegex = regexp.MustCompile(`^[a-z]+:[a-z_]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that a string has no leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// SecretName validates logical secret names.
var SecretName = validation.NewStringRuleWithError(
	func(s string) bool {
		return secretNameRegex.MatchString(s)
	},
	validation.NewError(
		"validation_secret_name",
		"must start with an alphanumeric character and contain only alphanumerics, '_', '.', '-' or '/' (max 128 characters)",
	),
)

// Permission validates a single api key permission scope.
var Permission = validation.NewStringRuleWithError(
	func(s string) bool {
		return permissionRegex.MatchString(s)
	},
	validation.NewError("validation_permission", "must have the form '<resource>:<action>' in lowercase"),
)
