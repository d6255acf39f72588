package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies API failures.
type Kind int

const (
	// KindNetwork means the request could not be sent or the response could not be read.
	KindNetwork Kind = iota + 1
	// KindAuthentication means a 401 response, or no token when one was required.
	KindAuthentication
	// KindValidation means a required field was empty and nothing was sent.
	KindValidation
	// KindServer means any other non-2xx response.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindValidation:
		return "ValidationError"
	case KindServer:
		return "ServerError"
	default:
		return "UnknownError"
	}
}

// Error is the single error shape returned by the client and the flows built on it.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error

	sentinel bool
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrNetwork        = &Error{Kind: KindNetwork, Message: "network error", sentinel: true}
	ErrAuthentication = &Error{Kind: KindAuthentication, Message: "authentication error", sentinel: true}
	ErrValidation     = &Error{Kind: KindValidation, Message: "validation error", sentinel: true}
	ErrServer         = &Error{Kind: KindServer, Message: "server error", sentinel: true}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error of the same kind against the kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel {
		return false
	}
	return t.Kind == e.Kind
}

// NewValidationError reports an empty or malformed field caught before dispatch.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewAuthenticationError reports a session that may not perform the requested action.
func NewAuthenticationError(format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Message: fmt.Sprintf(format, args...)}
}

// errUnauthenticated is returned without a network call when a token is required but absent.
func errUnauthenticated() *Error {
	return &Error{Kind: KindAuthentication, Message: "not authenticated: please log in"}
}

func networkError(msg string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: msg, Err: err}
}

// normalizeError turns a non-2xx response into an Error. It is the only place that
// knows the backend's error body layout: {"detail": "..."} or, for request
// validation failures, {"detail": [{"msg": "...", ...}]}. An unhealthy /health
// answers with its status body instead of a detail.
func normalizeError(status int, body []byte) *Error {
	kind := KindServer
	if status == 401 {
		kind = KindAuthentication
	}

	msg := detailMessage(body)
	if msg == "" {
		msg = healthMessage(body)
	}
	if msg == "" {
		msg = fmt.Sprintf("API error: %d", status)
	}

	return &Error{Kind: kind, Status: status, Message: msg}
}

func detailMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		item := items[0]
		if len(item.Loc) > 0 {
			return fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg)
		}
		return item.Msg
	}

	return ""
}

func healthMessage(body []byte) string {
	var h Health
	if err := json.Unmarshal(body, &h); err != nil || h.Status == "" {
		return ""
	}
	if h.Database == "" {
		return "backend " + h.Status
	}
	return fmt.Sprintf("backend %s (database: %s)", h.Status, h.Database)
}
