package delivery

import (
	"errors"
)

// Kind tags a delivery or connectivity failure.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindNotConfigured
	KindFileMissing
	KindFileTooLarge
	KindInvalidToken
	KindChatUnreachable
	KindRemoteRejected
	KindTransportFailure
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindNotConfigured:    "not_configured",
	KindFileMissing:      "file_missing",
	KindFileTooLarge:     "file_too_large",
	KindInvalidToken:     "invalid_token",
	KindChatUnreachable:  "chat_unreachable",
	KindRemoteRejected:   "remote_rejected",
	KindTransportFailure: "transport_failure",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Sentinel errors, one per kind. A *Error matches its kind's sentinel with
// errors.Is.
var (
	ErrNotConfigured    = errors.New("delivery: not configured")
	ErrFileMissing      = errors.New("delivery: file missing")
	ErrFileTooLarge     = errors.New("delivery: file too large")
	ErrInvalidToken     = errors.New("delivery: invalid bot token")
	ErrChatUnreachable  = errors.New("delivery: chat unreachable")
	ErrRemoteRejected   = errors.New("delivery: rejected by remote")
	ErrTransportFailure = errors.New("delivery: transport failure")
)

var kindSentinels = map[Kind]error{
	KindNotConfigured:    ErrNotConfigured,
	KindFileMissing:      ErrFileMissing,
	KindFileTooLarge:     ErrFileTooLarge,
	KindInvalidToken:     ErrInvalidToken,
	KindChatUnreachable:  ErrChatUnreachable,
	KindRemoteRejected:   ErrRemoteRejected,
	KindTransportFailure: ErrTransportFailure,
}

// Error is the failure result of a delivery or connectivity operation.
type Error struct {
	Kind Kind
	// Message is human-readable and meant to be shown verbatim.
	Message string
	// StatusCode and Body are set for failures answered by the remote API.
	StatusCode int
	Body       string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of err, or KindUnknown when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
