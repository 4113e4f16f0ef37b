package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRequestFailed    = errors.New("httpclient: request failed")
	ErrServiceError     = errors.New("httpclient: service error")
	ErrDecodeResponse   = errors.New("httpclient: failed to decode response")
	ErrCreateRequest    = errors.New("httpclient: failed to create request")
	ErrEncodeBody       = errors.New("httpclient: failed to encode request body")
	ErrRateLimited      = errors.New("httpclient: rate limiter wait failed")
	ErrResponseTooLarge = errors.New("httpclient: response body too large")
)

// ServiceError is returned when the server answers with a non-2xx status.
type ServiceError struct {
	StatusCode int
	Method     string
	Path       string
	// Detail is the raw response body, trimmed. Empty when the server sent none.
	Detail string
	// Message is filled when the body is a JSON error envelope.
	Message   string
	RequestID string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("httpclient: HTTP %d for %s %s: %s", e.StatusCode, e.Method, e.Path, e.DetailOrReason())
}

// DetailOrReason returns the server's diagnostic text, falling back to the
// status reason phrase when the body was empty.
func (e *ServiceError) DetailOrReason() string {
	if e.Detail != "" {
		return e.Detail
	}

	if reason := http.StatusText(e.StatusCode); reason != "" {
		return reason
	}

	return fmt.Sprintf("status %d", e.StatusCode)
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(target, ErrServiceError)
}

func (e *ServiceError) Unwrap() error {
	return ErrServiceError
}

func NewServiceError(statusCode int, method, path, requestID string) *ServiceError {
	return &ServiceError{
		StatusCode: statusCode,
		Method:     method,
		Path:       path,
		Detail:     "",
		Message:    "",
		RequestID:  requestID,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}

	return nil, false
}

// TransportError is returned when the request never produced a response:
// connection refused, DNS failure, timeout or a cancelled context.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("httpclient: unable to reach %s: %v", e.URL, e.Cause())
}

// Cause is the underlying failure without the method and URL net/http prefixes it with.
func (e *TransportError) Cause() error {
	return unwrapURLError(e.Err)
}

func (e *TransportError) Is(target error) bool {
	return errors.Is(target, ErrRequestFailed)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(method, url string, err error) *TransportError {
	return &TransportError{
		Method: method,
		URL:    url,
		Err:    err,
	}
}

func IsTransportError(err error) (*TransportError, bool) {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr, true
	}

	return nil, false
}
