package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// AccessDeniedMessage is returned by AdminLogin whenever the caller is not an administrator.
const AccessDeniedMessage = "Доступ запрещён. Требуются права администратора."

var (
	// ErrTransport wraps failures where the request never reached the server or no response arrived.
	ErrTransport = errors.New("transport failure")
	// ErrAccessDenied is matched by the error AdminLogin returns for non-admin or failed logins.
	ErrAccessDenied = errors.New(AccessDeniedMessage)
)

// APIError is an application-level failure reported by the remote backend.
// Message is empty when the response carried no error text.
type APIError struct {
	Group   Group
	Action  string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %s (status %d)", e.Group, e.Action, msg, e.Status)
}

// DecodeError reports a response body that does not match the endpoint's result type.
type DecodeError struct {
	Group  Group
	Action string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v", e.Group, e.Action, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type accessDeniedError struct {
	cause error
}

func (e *accessDeniedError) Error() string {
	return AccessDeniedMessage
}

func (e *accessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

func (e *accessDeniedError) Unwrap() error {
	return e.cause
}

// Message returns the text a UI should show for err: the server's own message for
// application failures, and err's text otherwise.
func Message(err error) string {
	if errors.Is(err, ErrAccessDenied) {
		return AccessDeniedMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return http.StatusText(apiErr.Status)
	}
	return err.Error()
}

// HTTPStatus maps err to the status a local HTTP surface should answer with.
func HTTPStatus(err error) int {
	var (
		apiErr    *APIError
		decodeErr *DecodeError
	)
	switch {
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 600 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	case errors.As(err, &decodeErr), errors.Is(err, ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrTransport) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}
