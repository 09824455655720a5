package validation

import (
	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

// Present validates that a field is not empty. Whitespace counts as a value;
// format checks are left to the API.
func Present(message string) Validator {
	return func(v string) string {
		if v == "" {
			return message
		}
		return ""
	}
}

// Equals validates that a field matches other exactly.
func Equals(other, message string) Validator {
	return func(v string) string {
		if v != other {
			return message
		}
		return ""
	}
}

// FieldValidator provides a fluent API for validating multiple fields.
// Fields are remembered in the order they were validated so First can report
// the highest-priority failure.
type FieldValidator struct {
	errors map[string]string
	order  []string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	if _, seen := fv.errors[field]; seen {
		return fv
	}
	for _, v := range validators {
		if err := v(value); err != "" {
			fv.errors[field] = err
			fv.order = append(fv.order, field)
			break // Stop at first error per field
		}
	}
	return fv
}

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}

// First returns the earliest failing field and its message.
func (fv *FieldValidator) First() (string, string, bool) {
	if len(fv.order) == 0 {
		return "", "", false
	}
	field := fv.order[0]
	return field, fv.errors[field], true
}

// Messages surfaced by the account forms.
const (
	MsgNameRequired     = "Name is required"
	MsgEmailRequired    = "Email is required"
	MsgPasswordRequired = "Password is required"
	MsgPasswordMismatch = "Passwords do not match"
)

// ValidateRegistration checks the registration form in priority order
// (name, email, password, confirmation) and reports only the first failure.
// The mismatch error is attached to the password field.
func ValidateRegistration(in domainauth.RegisterInput) error {
	fv := New().
		Validate(domainauth.FieldName, in.Name, Present(MsgNameRequired)).
		Validate(domainauth.FieldEmail, in.Email, Present(MsgEmailRequired)).
		Validate(domainauth.FieldPassword, in.Password,
			Present(MsgPasswordRequired),
			Equals(in.PasswordConfirm, MsgPasswordMismatch),
		)
	return firstError(fv)
}

// ValidateLogin checks the login form in priority order (email, password).
func ValidateLogin(in domainauth.LoginInput) error {
	fv := New().
		Validate(domainauth.FieldEmail, in.Email, Present(MsgEmailRequired)).
		Validate(domainauth.FieldPassword, in.Password, Present(MsgPasswordRequired))
	return firstError(fv)
}

func firstError(fv *FieldValidator) error {
	field, msg, ok := fv.First()
	if !ok {
		return nil
	}
	return apperrors.ValidationField(field, msg)
}
