package authapi

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
)

// APIError is a non-2xx answer from the auth API, decoded from
// {"errors": {"fieldErrors": {...}}, "message": "..."}.
// Either part may be missing; an undecodable body leaves both empty.
type APIError struct {
	Status      int
	Message     string
	FieldErrors domainauth.FieldErrors
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("auth api returned status %d", e.Status)
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type fieldErrorsEnvelope struct {
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// decodeAPIError reads the error body leniently: each top-level member is decoded on
// its own so a malformed "errors" member does not hide a usable "message".
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return apiErr
	}
	if raw, ok := members["message"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			apiErr.Message = msg
		}
	}
	if raw, ok := members["errors"]; ok {
		var env fieldErrorsEnvelope
		if json.Unmarshal(raw, &env) == nil && len(env.FieldErrors) > 0 {
			apiErr.FieldErrors = domainauth.FieldErrors(env.FieldErrors)
		}
	}
	return apiErr
}

// newStatusError wraps the decoded body in an AppError classified by status.
func newStatusError(r request, status int, body []byte) error {
	apiErr := decodeAPIError(status, body)
	return apperrors.Wrapf(apiErr, apperrors.CodeForStatus(status), "%s %s", r.Method, r.Path)
}
