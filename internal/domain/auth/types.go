package auth

// Package auth contains domain-level types for users, sessions and the account forms.
// It is pure and free of framework/adapter concerns.

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// User is the account record returned by the users API. The password is never returned.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnmarshalJSON accepts the id as either a string or a number; backends with
// integer keys send "id": 1.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeUserID(raw.ID)
	if err != nil {
		return err
	}
	*u = User{ID: id, Name: raw.Name, Email: raw.Email}
	return nil
}

func decodeUserID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("user id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("user id must be a string or a number: %w", err)
	}
	return n.String(), nil
}

// SessionStatus distinguishes "not yet known" from "known to be signed out".
type SessionStatus int

const (
	// StatusUnknown means the current user has not been resolved yet.
	StatusUnknown SessionStatus = iota
	// StatusAuthenticated means a user was returned for the session.
	StatusAuthenticated
	// StatusAnonymous means no user is signed in or the lookup failed.
	StatusAnonymous
)

func (s SessionStatus) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// SessionState is the resolved view of who is signed in.
// User is non-nil only when Status is StatusAuthenticated.
// Err records why an Anonymous state was reached when it was caused by a failed lookup.
type SessionState struct {
	Status SessionStatus
	User   *User
	Err    error
}

// Unknown returns the initial, unresolved state.
func Unknown() SessionState { return SessionState{Status: StatusUnknown} }

// Authenticated returns a state holding the given user.
func Authenticated(u User) SessionState {
	return SessionState{Status: StatusAuthenticated, User: &u}
}

// Anonymous returns a signed-out state. err may be nil.
func Anonymous(err error) SessionState {
	return SessionState{Status: StatusAnonymous, Err: err}
}

// IsKnown reports whether the state has been resolved.
func (s SessionState) IsKnown() bool { return s.Status != StatusUnknown }

// IsAuthenticated reports whether a user is held.
func (s SessionState) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// RegisterInput is the payload sent to the registration endpoint.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// LoginInput is the payload sent to the login endpoint.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Form field names shared by the validator, the API error mapping and the templates.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// FieldErrors maps an input name to the list of messages reported for it.
type FieldErrors map[string][]string

// First returns the first message for field, or "" when there is none.
func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}
