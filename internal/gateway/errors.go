package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError is a response the backend marked as failed.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error %d", e.Status)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// AuthError is a rejected login.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// UserMessage renders err as a short line fit for a notice.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		authErr    *AuthError
		netErr     *NetworkError
		backendErr *BackendError
	)
	switch {
	case errors.As(err, &authErr):
		return "Login failed: " + authErr.Reason
	case errors.As(err, &netErr):
		return "Cannot reach the server. Check your connection."
	case errors.As(err, &backendErr):
		if backendErr.Message != "" {
			return backendErr.Message
		}
		if text := http.StatusText(backendErr.Status); text != "" {
			return "Request failed: " + text
		}
		return "Request failed"
	default:
		return err.Error()
	}
}
