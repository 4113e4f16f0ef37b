package hyperion

import (
	"errors"
	"fmt"

	"github.com/andyle182810/hyperion-go/httpclient"
)

var (
	ErrInvalidConfig = errors.New("hyperion: invalid config")
	ErrRejected      = errors.New("hyperion: request rejected")
	ErrUnreachable   = errors.New("hyperion: server unreachable")
)

type ErrorKind int

const (
	// KindRejection: the server answered with a non-2xx status.
	KindRejection ErrorKind = iota + 1
	// KindTransport: the request never got a response.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejection:
		return "rejection"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// RemoteError is the single error type returned for failed calls.
type RemoteError struct {
	Kind       ErrorKind
	StatusCode int
	Method     string
	Path       string
	// Address is the full URL that was attempted.
	Address string
	// Detail is the server's diagnostic text or reason phrase for rejections,
	// and the underlying cause for transport failures.
	Detail string
	// Message is the text of a JSON error envelope ({"error": ...} or
	// {"message": ...}) when the rejection carried one.
	Message   string
	RequestID string
	Err       error
}

func (e *RemoteError) Error() string {
	if e.Kind == KindRejection {
		return fmt.Sprintf("hyperion: HTTP %d for %s %s: %s", e.StatusCode, e.Method, e.Path, e.Detail)
	}

	return fmt.Sprintf("hyperion: unable to reach %s: %s", e.Address, e.Detail)
}

func (e *RemoteError) Is(target error) bool {
	switch e.Kind {
	case KindRejection:
		return target == ErrRejected
	case KindTransport:
		return target == ErrUnreachable
	default:
		return false
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func AsRemoteError(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}

	return nil, false
}

// classify maps transport errors onto RemoteError. Anything that is neither a
// rejection nor a transport failure is returned wrapped but unclassified.
func classify(method, path, address string, err error) error {
	if svcErr, ok := httpclient.IsServiceError(err); ok {
		return &RemoteError{
			Kind:       KindRejection,
			StatusCode: svcErr.StatusCode,
			Method:     method,
			Path:       path,
			Address:    address,
			Detail:     svcErr.DetailOrReason(),
			Message:    svcErr.Message,
			RequestID:  svcErr.RequestID,
			Err:        err,
		}
	}

	if tErr, ok := httpclient.IsTransportError(err); ok {
		return &RemoteError{
			Kind:       KindTransport,
			StatusCode: 0,
			Method:     method,
			Path:       path,
			Address:    tErr.URL,
			Detail:     tErr.Cause().Error(),
			Message:    "",
			RequestID:  "",
			Err:        err,
		}
	}

	return fmt.Errorf("hyperion: %s %s: %w", method, path, err)
}
