package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
)

// FieldErrors maps a field name to its messages.
// Errors not tied to a field use the key "non_field_errors".
type FieldErrors map[string][]string

// NonFieldKey is the key used for errors that do not belong to a field.
const NonFieldKey = "non_field_errors"

// String renders the errors as "field: msg; field: msg" in field order.
func (f FieldErrors) String() string {
	if len(f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(f[k], " ")
		if k == NonFieldKey || k == "detail" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, k+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Error is a classified backend or client-side failure.
type Error struct {
	Kind    error       // one of the Err* sentinels
	Status  int         // HTTP status, 0 when no response was received
	Message string      // optional human-readable detail
	Fields  FieldErrors // field-level messages for validation failures
	Err     error       // underlying cause
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	switch {
	case len(e.Fields) > 0:
		msg += ": " + e.Fields.String()
	case e.Message != "":
		msg += ": " + e.Message
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the error kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError returns a validation error for a single field.
func NewValidationError(field, msg string) *Error {
	return &Error{
		Kind:   ErrValidation,
		Fields: FieldErrors{field: {msg}},
	}
}

// KindOf returns the kind sentinel of err, or nil if err is not classified.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// FieldsOf returns the field errors carried by err, if any.
func FieldsOf(err error) FieldErrors {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Errorf wraps a cause with a kind and formatted message.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
