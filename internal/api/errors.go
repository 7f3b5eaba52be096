package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Category classifies a failed call.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryAuth       Category = "auth"
	CategoryPermission Category = "permission"
	CategoryNotFound   Category = "not_found"
	CategoryValidation Category = "validation"
	CategoryServer     Category = "server"
	CategoryClient     Category = "client"
	CategoryDecode     Category = "decode"
)

// Error is returned for transport failures and non-2xx responses.
type Error struct {
	Method   string
	Path     string
	Status   int
	Category Category
	// Details is the response body: decoded JSON when parseable, otherwise the raw text.
	Details any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Category == CategoryNetwork:
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
	case e.Category == CategoryDecode:
		return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
	case e.Status != 0:
		if msg := e.Detail(); msg != "" {
			return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), msg)
		}
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the identical request may succeed.
func (e *Error) Retryable() bool {
	return e.Category == CategoryNetwork || e.Category == CategoryServer
}

// Detail returns the most useful human-readable message in Details: the
// backend's "detail", "message" or "error" field, or the raw text.
func (e *Error) Detail() string {
	switch d := e.Details.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(d)
	case map[string]any:
		for _, k := range []string{"detail", "message", "error"} {
			if v, ok := d[k]; ok {
				if s := detailString(v); s != "" {
					return s
				}
			}
		}
	}
	b, _ := json.Marshal(e.Details)
	return string(b)
}

// DetailsText renders Details for an expandable "show details" view.
func (e *Error) DetailsText() string {
	switch d := e.Details.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		b, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Sprint(d)
		}
		return string(b)
	}
}

// FastAPI-style validation payloads put a list of {loc, msg} under "detail".
func detailString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var parts []string
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok {
					parts = append(parts, msg)
				}
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func categorize(status int) Category {
	switch {
	case status == http.StatusUnauthorized:
		return CategoryAuth
	case status == http.StatusForbidden:
		return CategoryPermission
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status >= 500:
		return CategoryServer
	default:
		return CategoryClient
	}
}

func newStatusError(method, path string, status int, body []byte) *Error {
	e := &Error{Method: method, Path: path, Status: status, Category: categorize(status)}
	if len(body) > 0 {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			e.Details = v
		} else {
			e.Details = string(body)
		}
	}
	return e
}

// IsStatus reports whether err is an *Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == status
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryNetwork
}

// ValidationError holds local request validation failures keyed by field.
// It is produced before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// asValidationError converts ozzo validation output into a *ValidationError.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		fields := make(map[string]string, len(errs))
		for k, v := range errs {
			if v != nil {
				fields[k] = v.Error()
			}
		}
		return &ValidationError{Fields: fields}
	}
	var ie validation.InternalError
	if errors.As(err, &ie) {
		return err
	}
	return &ValidationError{Fields: map[string]string{"request": err.Error()}}
}

// Check validates a request locally, returning a *ValidationError on failure.
// Endpoints run the same check before sending.
func Check(req validation.Validatable) error {
	return asValidationError(req.Validate())
}
