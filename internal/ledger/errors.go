package ledger

import (
	"errors"
	"strings"
)

var (
	// ErrValidation is wrapped by ValidationErrors.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means an edit or delete target is not in the expected category.
	ErrNotFound = errors.New("transaction not found")
	// ErrUnknownCategory is returned for category keys outside the fixed set.
	ErrUnknownCategory = errors.New("unknown category")
)

// ValidationError is a single failed field check.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failed check of one submission, in check order.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrValidation }

// Messages returns the user-facing messages.
func (v ValidationErrors) Messages() []string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return msgs
}

// First returns the message shown to the user, or "" if there are none.
func (v ValidationErrors) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Message
}
