package api

import "fmt"

// APIError represents a non-2xx response from the analyzer backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// AuthError indicates authentication/authorization failures: a rejected
// login or a 401/403 on a protected endpoint.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RemoteError is a structured backend failure: a 2xx response whose body
// carries an explicit error field. The message is the backend's own text and
// is what remediation hints are matched against.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// ServerError indicates 5xx errors from the backend.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("server error: %s", e.APIError.Error()) }

// classifyStatus maps a non-2xx status to a typed error.
func classifyStatus(status int, message string) error {
	apiErr := &APIError{StatusCode: status, Message: message}
	switch {
	case status == 401 || status == 403:
		return &AuthError{APIError: apiErr}
	case status >= 500 && status <= 599:
		return &ServerError{APIError: apiErr}
	default:
		return apiErr
	}
}
