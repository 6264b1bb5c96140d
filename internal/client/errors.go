package client

import (
	"encoding/json"
	"fmt"
)

// NetworkError reports a request that never produced an HTTP response
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error while fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response. Body holds the response text, or is
// empty when it could not be read.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string // status text without the code, e.g. "Not Found"
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("HTTP %d %s from %s", e.StatusCode, e.Status, e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Detail returns the backend's "detail" or "message" field when the body is
// a JSON object carrying one, and "" otherwise.
func (e *HTTPError) Detail() string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(e.Body), &body); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		// FastAPI validation errors carry a list here
		return string(raw)
	}
	return ""
}

// ParseError reports a successful response whose body is not valid JSON
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: failed to parse JSON response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
