package hub

import (
	"errors"
	"fmt"
)

// AuthError means the hub rejected the credentials or the session token.
type AuthError struct {
	Op      string
	Status  int // HTTP status, 0 when the rejection came in the response body
	Message string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("hub %s: authentication rejected (http %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("hub %s: authentication rejected: %s", e.Op, e.Message)
}

// FetchError is a failed read from the hub. Transient errors (network, timeout,
// 5xx, 429) may be retried; permanent ones may not.
type FetchError struct {
	Op        string
	DeviceID  string
	Status    int
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	msg := fmt.Sprintf("hub %s: %s fetch error", e.Op, kind)
	if e.DeviceID != "" {
		msg += " for device " + e.DeviceID
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (http %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// CommandErrorKind tells why a control command failed.
type CommandErrorKind string

const (
	CommandNetwork  CommandErrorKind = "network"
	CommandAuth     CommandErrorKind = "auth"
	CommandRejected CommandErrorKind = "rejected"
	CommandInvalid  CommandErrorKind = "invalid"
)

// CommandError is a failed control command.
type CommandError struct {
	Kind    CommandErrorKind
	Command CommandKind
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("hub command %s %s", e.Command, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// IsAuth reports whether err is, or wraps, an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return true
	}
	var ce *CommandError
	return errors.As(err, &ce) && ce.Kind == CommandAuth
}

// IsTransient reports whether err is a retryable fetch failure.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Transient
}
