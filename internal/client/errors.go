package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an APIError.
type ErrorKind int

const (
	// KindNetworkUnreachable covers transport failures: DNS, dial, TLS, timeouts.
	KindNetworkUnreachable ErrorKind = iota
	// KindNonSuccessStatus is a non-2xx response without a usable error message.
	KindNonSuccessStatus
	// KindMalformed is a response body that does not match the expected shape.
	KindMalformed
	// KindServerReported is a failure response carrying an {"error": ...} message.
	KindServerReported
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetworkUnreachable:
		return "network unreachable"
	case KindNonSuccessStatus:
		return "non-success status"
	case KindMalformed:
		return "malformed response"
	case KindServerReported:
		return "server reported"
	default:
		return "unknown"
	}
}

// APIError is returned by every ClusterClient call that fails.
type APIError struct {
	Kind       ErrorKind
	Op         string // "status", "compact" or "defrag"
	StatusCode int    // HTTP status, 0 for transport failures
	Message    string // server message or parse detail
	Endpoint   string // member named by a defrag failure, if any
	Err        error  // underlying cause, if any
}

func (e *APIError) Error() string {
	if e.Kind == KindServerReported && e.Endpoint != "" {
		return fmt.Sprintf("%s: %s (endpoint %s)", e.Op, e.Message, e.Endpoint)
	}
	return e.Op + ": " + e.reason()
}

// reason describes the failure without naming the operation.
func (e *APIError) reason() string {
	switch e.Kind {
	case KindNetworkUnreachable:
		return fmt.Sprintf("cluster unreachable: %v", e.Err)
	case KindNonSuccessStatus:
		if e.Message != "" {
			return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	case KindMalformed:
		if e.Err != nil {
			return fmt.Sprintf("malformed response: %s: %v", e.Message, e.Err)
		}
		return "malformed response: " + e.Message
	case KindServerReported:
		return e.Message
	default:
		return e.Message
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the user. Server-reported messages are
// passed through verbatim, without the endpoint; everything else names the
// failed operation.
func (e *APIError) UserMessage() string {
	if e.Kind == KindServerReported {
		return e.reason()
	}
	return "failed to " + opVerb(e.Op) + ": " + e.reason()
}

func opVerb(op string) string {
	switch op {
	case opStatus:
		return "fetch endpoints status"
	case opCompact:
		return "compact database"
	case opDefrag:
		return "defragment database"
	default:
		return op
	}
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// UserMessage extracts the user-facing message from any error returned by a
// ClusterClient. Non-API errors fall back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
