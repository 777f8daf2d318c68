package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyResponse is returned when a 2xx response that should carry a JSON
// document has no body.
var ErrEmptyResponse = errors.New("empty response body")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsUnauthorized reports a rejected or missing bearer token.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports an authorization failure, e.g. touching another user's posting.
func IsForbidden(err error) bool {
	return IsStatus(err, http.StatusForbidden)
}

// Message returns the backend's message for err, or err.Error() when err is not an HTTPError.
func Message(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}

// errorMessage extracts a readable message from an error body. NestJS sends
// {"message": "..."} or {"message": ["...", "..."]}; other servers send {"error": "..."}.
func errorMessage(body []byte) string {
	var apiErr struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if len(apiErr.Message) > 0 {
			var s string
			if json.Unmarshal(apiErr.Message, &s) == nil && s != "" {
				return s
			}
			var list []string
			if json.Unmarshal(apiErr.Message, &list) == nil && len(list) > 0 {
				return strings.Join(list, "; ")
			}
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	return strings.TrimSpace(string(body))
}
