package transport

import (
	"bytes"
	"encoding/json"

	"tasksync/internal/service"
)

// DecodeFieldErrors decodes validation messages from an error body.
// Accepted shapes:
//
//	{"title": ["This field may not be blank."]}
//	{"errors": {"email": ["This email is already in use."]}}
//	{"password_confirm": "Passwords must match."}
//	{"detail": "Not found."}
//	["Invalid username or password."]
//
// Anything else yields a single non-field message with the raw body.
func DecodeFieldErrors(body []byte) service.FieldErrors {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	var list []string
	if json.Unmarshal(body, &list) == nil {
		return service.FieldErrors{service.NonFieldKey: list}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return service.FieldErrors{service.NonFieldKey: {string(body)}}
	}

	// Registration wraps the field map in "errors".
	if nested, ok := obj["errors"]; ok && len(obj) == 1 {
		if inner := DecodeFieldErrors(nested); len(inner) > 0 {
			return inner
		}
	}

	fields := make(service.FieldErrors, len(obj))
	for key, raw := range obj {
		if msgs := messages(raw); len(msgs) > 0 {
			fields[key] = msgs
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func messages(raw json.RawMessage) []string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return []string{s}
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	return []string{string(raw)}
}
