// Package domainerr is the ledger's error taxonomy.
package domainerr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind string

const (
	KindValidation             Kind = "VALIDATION"
	KindNotFound               Kind = "NOT_FOUND"
	KindPermissionDenied       Kind = "PERMISSION_DENIED"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindInsufficientBalance    Kind = "INSUFFICIENT_BALANCE"
	KindUpstream               Kind = "UPSTREAM_FAILURE"
)

// Error is a structured domain error. Field names the offending input when
// there is one.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrPermissionDenied       = &Error{Kind: KindPermissionDenied}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrInsufficientBalance    = &Error{Kind: KindInsufficientBalance}
	ErrUpstream               = &Error{Kind: KindUpstream}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Field == "" && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of the first domain error in err's chain, or "".
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func Validation(field, format string, args ...any) error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id fmt.Stringer) error {
	return &Error{Kind: KindNotFound, Field: entity, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func PermissionDenied(permission string) error {
	return &Error{Kind: KindPermissionDenied, Field: permission, Message: "missing permission " + permission}
}

func InvalidStateTransition(format string, args ...any) error {
	return &Error{Kind: KindInvalidStateTransition, Message: fmt.Sprintf(format, args...)}
}

func InsufficientBalance(format string, args ...any) error {
	return &Error{Kind: KindInsufficientBalance, Field: "amount", Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a collaborator failure so callers can retry.
func Upstream(collaborator string, err error) error {
	return &Error{Kind: KindUpstream, Field: collaborator, Message: "collaborator failed", Err: err}
}
