package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the ClientFlow API.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
}

// NewAPIError builds an APIError, extracting the message from the body.
func NewAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Status:  status,
		Method:  method,
		Path:    path,
		Message: ExtractMessage(body, ""),
		Body:    body,
	}
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// ExtractMessage reads a user-facing message from an error body. Order:
// detail (string or list of {msg}), error.message, message, fallback.
func ExtractMessage(body []byte, fallback string) string {
	if len(body) == 0 {
		return fallback
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return fallback
	}

	if msg := detailMessage(raw["detail"]); msg != "" {
		return msg
	}
	if nested, ok := raw["error"].(map[string]any); ok {
		if msg, ok := nested["message"].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	if msg, ok := raw["message"].(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}

func detailMessage(v any) string {
	switch d := v.(type) {
	case string:
		return strings.TrimSpace(d)
	case []any:
		msgs := make([]string, 0, len(d))
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if s, ok := m["msg"].(string); ok && s != "" {
					msgs = append(msgs, s)
				}
			}
		}
		return strings.Join(msgs, "; ")
	case map[string]any:
		if s, ok := d["message"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Message turns any error into the text shown to the operator.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	var be BusinessError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
