package network

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError is returned when the HTTP exchange itself fails (connection refused,
// timeout, TLS failure). The request is not retried.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is returned for any HTTP status other than 200.
type RemoteError struct {
	StatusCode int
	Body       []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// ServiceError is a logical failure the service reported inside a 200 response, as an
// <error> document carrying a code and a message.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error [%s] %s", e.Code, e.Message)
}

// IsRemoteStatus reports whether err is a RemoteError with the given status code.
func IsRemoteStatus(err error, statusCode int) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.StatusCode == statusCode
}
