// Package errs defines the JSON error shape every API response uses.
//
// A client always receives {code, message, status} and, where relevant,
// field-level validation errors and an action hint such as a redirect.
package errs

import "strings"

// FieldError represents a field-level validation error.
//
//	{ "field": "date", "error": "must be a date in YYYY-MM-DD format" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType describes what the client should do next.
type ActionType string

const (
	// ActionTypeRedirect tells the client to navigate to Value.
	ActionTypeRedirect ActionType = "redirect"
)

// Action is an optional client instruction attached to an error.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the API error body.  It satisfies error so handlers can
// return it directly and let the global handler render it.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
	Action  *Action      `json:"action,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError regardless of its fields.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of e with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithRedirect returns a copy of e that asks the client to go to path.
func (e *HTTPError) WithRedirect(path, message string) *HTTPError {
	cp := *e
	cp.Action = &Action{Type: ActionTypeRedirect, Message: message, Value: path}
	return &cp
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
