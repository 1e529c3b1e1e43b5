package unicrew

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a client failure for caller branching.
type ErrorKind string

const (
	// KindNetwork covers connection refused, DNS failures and other cases
	// where no response was received.
	KindNetwork ErrorKind = "network"
	// KindTimeout marks requests that exceeded their configured duration.
	KindTimeout ErrorKind = "timeout"
	// KindAuth marks HTTP 401 responses that survived the refresh-and-retry
	// protocol.
	KindAuth ErrorKind = "auth"
	// KindValidation marks 4xx responses other than 401.
	KindValidation ErrorKind = "validation"
	// KindServer marks 5xx responses.
	KindServer ErrorKind = "server"
)

// ErrNoRefreshToken is returned by refresh when no refresh token is held.
var ErrNoRefreshToken = errors.New("unicrew session: no refresh token")

// ErrNotAuthenticated is returned by operations that require a session.
var ErrNotAuthenticated = errors.New("unicrew session: not authenticated")

// APIError is the normalized failure shape surfaced to callers for every
// request that did not succeed.
type APIError struct {
	// Kind classifies the failure.
	Kind ErrorKind `json:"kind"`
	// Message is the server-provided detail when available, otherwise a
	// generic description.
	Message string `json:"message"`
	// Status is the HTTP status code, 0 when no response was received.
	Status int `json:"status,omitempty"`
	// Raw preserves the unparsed response body for callers that need
	// field-level validation detail.
	Raw []byte `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Status > 0 {
		return fmt.Sprintf("unicrew api: %s (HTTP %d)", e.Message, e.Status)
	}
	return "unicrew api: " + e.Message
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindTimeout
}

// IsAuthError reports whether err is an unresolved 401.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}

// IsValidationError reports whether err carries server-side validation detail.
func IsValidationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindValidation
}

// statusError builds the normalized error for a non-2xx response.
func statusError(status int, body []byte) *APIError {
	kind := KindServer
	switch {
	case status == http.StatusUnauthorized:
		kind = KindAuth
	case status >= 400 && status < 500:
		kind = KindValidation
	}
	return &APIError{
		Kind:    kind,
		Message: errorDetail(body, status),
		Status:  status,
		Raw:     body,
	}
}

// transportError classifies a request that produced no HTTP response.
func transportError(err error) *APIError {
	kind := KindNetwork
	message := "cannot reach server"
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
		message = "request timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
		message = "request timed out"
	}
	return &APIError{Kind: kind, Message: fmt.Sprintf("%s: %v", message, err)}
}

// errorDetail extracts the human readable message from a DRF-style error
// body. Bodies vary between {"detail": ...}, {"message": ...} and per-field
// error maps such as {"username": ["taken"]}, so the body is probed rather
// than unmarshalled into a fixed shape.
func errorDetail(body []byte, status int) string {
	if len(body) > 0 && gjson.ValidBytes(body) {
		if detail := gjson.GetBytes(body, "detail"); detail.Exists() && detail.String() != "" {
			return detail.String()
		}
		if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
		// Field error map: report the first field with its first message.
		var fieldMsg string
		gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
			if value.IsArray() && len(value.Array()) > 0 {
				fieldMsg = key.String() + ": " + value.Array()[0].String()
				return false
			}
			if value.Type == gjson.String && value.String() != "" {
				fieldMsg = key.String() + ": " + value.String()
				return false
			}
			return true
		})
		if fieldMsg != "" {
			return fieldMsg
		}
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}
