package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
)

// APIError is returned for transport failures and non-2xx responses.
// Message is ready to show to the user.
type APIError struct {
	Op         string
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

// ResultError is a 2xx response whose body carried a non-empty "error" field.
type ResultError struct {
	Op      string
	Message string
}

func (e *ResultError) Error() string { return e.Message }

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// UserMessage flattens err into the single string shown next to a form.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var resErr *ResultError
	if errors.As(err, &resErr) {
		return resErr.Message
	}
	return err.Error()
}

func transportError(op string, err error) *APIError {
	return &APIError{Op: op, Message: fmt.Sprintf("Failed to %s.", op), Err: err}
}

// statusError builds the error for a non-2xx response, preferring the
// server's "detail" (FastAPI) or "error" field over the raw body.
func statusError(op string, status int, body []byte) *APIError {
	msg := serverDetail(body)
	if msg == "" {
		msg = fmt.Sprintf("%s failed: %d %s", capitalize(op), status, strings.TrimSpace(string(body)))
		msg = strings.TrimSpace(msg)
	}
	return &APIError{Op: op, StatusCode: status, Message: msg}
}

func serverDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil && s != "" {
			return s
		}
		// Validation failures carry a list of {loc, msg, type}.
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			var msgs []string
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return payload.Error
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
