package store

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation marks a record inside a range query that has no
	// decodable location.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrDecode marks a point read whose stored value is not a location record.
	ErrDecode = errors.New("decode error")
	// ErrRemote marks a failure reported by the backing store.
	ErrRemote = errors.New("remote error")
)

// ProtocolViolationError is raised when a child event carries a record with
// a missing or malformed "l" field.
type ProtocolViolationError struct {
	Key    string
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation for key %q: %s", e.Key, e.Reason)
}

func (e *ProtocolViolationError) Unwrap() error { return ErrProtocolViolation }

// DecodeError is delivered when a stored value cannot be parsed.
type DecodeError struct {
	Key   string
	Value interface{}
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot decode location for key %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("cannot decode location for key %q from %v", e.Key, e.Value)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDecode, e.Err}
	}
	return []error{ErrDecode}
}

// RemoteError wraps a backend failure with the operation and the key or
// query it concerns.
type RemoteError struct {
	Op    string
	Key   string
	Query string
	Err   error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
	case e.Query != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Query, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() []error { return []error{ErrRemote, e.Err} }

// NewRemoteError tags err with the failing operation and key.
func NewRemoteError(op, key string, err error) error {
	return &RemoteError{Op: op, Key: key, Err: err}
}
