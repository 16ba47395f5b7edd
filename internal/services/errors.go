package services

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why a clip could not be produced or played.
type Kind string

const (
	KindInvalidLink     Kind = "invalid_link"
	KindUnresolvable    Kind = "unresolvable"
	KindLive            Kind = "live"
	KindTooShort        Kind = "too_short"
	KindTranscodeFailed Kind = "transcode_failed"
	KindMissingFile     Kind = "missing_file"
	KindSlotUnavailable Kind = "slot_unavailable"
	KindEngineInit      Kind = "engine_init"
)

// Kinds lists every failure kind in reporting order.
func Kinds() []Kind {
	return []Kind{
		KindInvalidLink,
		KindUnresolvable,
		KindLive,
		KindTooShort,
		KindTranscodeFailed,
		KindMissingFile,
		KindSlotUnavailable,
		KindEngineInit,
	}
}

// Error is the typed failure carried across component boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Subject string
	Err     error
}

// Wrap builds an *Error. err may be nil.
func Wrap(kind Kind, op, subject string, err error) error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(kind Kind, op, subject, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	parts = append(parts, string(e.Kind))
	if subject := strings.TrimSpace(e.Subject); subject != "" {
		parts = append(parts, subject)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind reports the failure kind.
func (e *Error) ErrorKind() Kind { return e.Kind }

// Is matches another *Error with the same kind, so callers can compare against
// a bare &Error{Kind: ...} target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Subject == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
