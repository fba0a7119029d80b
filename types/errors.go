package types

import (
	"errors"
	"fmt"
)

// ErrorKind is a coarse classification of run failures.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindRead       ErrorKind = "read"
	KindPublish    ErrorKind = "publish"
	KindConfig     ErrorKind = "config"
	KindCheckpoint ErrorKind = "checkpoint"
	KindSpool      ErrorKind = "spool"
)

// OpError wraps an underlying error with the operation and its kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // file path or broker address, optional
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether any OpError in err's chain has the given kind,
// including OpErrors nested inside another OpError.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	for errors.As(err, &oe) {
		if oe.Kind == kind {
			return true
		}
		err = oe.Err
	}
	return false
}

// KindOf returns the kind of the outermost OpError in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// ConfigError is a shorthand for a config-kind OpError.
func ConfigError(op, field, msg string) error {
	return &OpError{Op: op, Kind: KindConfig, Err: fmt.Errorf("%s: %s", field, msg)}
}
