package account

import (
	"errors"

	apperrors "github.com/target/authweb/internal/errors"
)

// FormState is what a form view renders: echoed values, one error per field,
// a general banner and the loading flag. Passwords are never echoed.
type FormState struct {
	Values      map[string]string
	FieldErrors map[string]string
	General     string
	Loading     bool
}

// NewFormState returns a cleared form holding values.
func NewFormState(values map[string]string) FormState {
	if values == nil {
		values = map[string]string{}
	}
	return FormState{Values: values, FieldErrors: map[string]string{}}
}

// Value returns the echoed value for field.
func (f FormState) Value(field string) string { return f.Values[field] }

// Error returns the error shown under field.
func (f FormState) Error(field string) string { return f.FieldErrors[field] }

// HasErrors reports whether any field error or banner is set.
func (f FormState) HasErrors() bool { return len(f.FieldErrors) > 0 || f.General != "" }

func (f *FormState) setValidationError(err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		f.General = err.Error()
		return
	}
	if appErr.Field == "" {
		f.General = appErr.Message
		return
	}
	f.FieldErrors[appErr.Field] = appErr.Message
}
