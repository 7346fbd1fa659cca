package voicecore

import (
	"fmt"
	"net/url"

	"github.com/kithai-ai/voicecore/pkg/core"
)

// Error is the canonical taxonomy error returned across the SDK.
type Error = core.Error

// Taxonomy types.
const (
	ErrTransport      = core.ErrTransport
	ErrConfigRejected = core.ErrConfigRejected
	ErrPersistence    = core.ErrPersistence
	ErrValidation     = core.ErrValidation
)

// Constructors for the taxonomy types.
var (
	NewTransportError      = core.NewTransportError
	NewConfigRejectedError = core.NewConfigRejectedError
	NewPersistenceError    = core.NewPersistenceError
	NewValidationError     = core.NewValidationError
)

// TransportError reports a socket-level failure while reaching the
// live gateway: DNS resolution, TLS handshake, timeouts, or a rejected
// websocket upgrade. It sits outside the canonical taxonomy; match it
// with errors.As to separate connectivity failures from session errors.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	msg := "gateway transport failure"
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.URL != "" {
		msg += " to " + redactUserInfo(e.URL)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// redactUserInfo strips credentials embedded in a gateway URL before it
// reaches a log line or error message.
func redactUserInfo(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.User == nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}
