package service

import "errors"

// Kind classifies a service error for the API boundary.
type Kind string

const (
	// KindNotFound covers rows that do not exist for this owner. Rows owned
	// by someone else report the same kind, so existence never leaks.
	KindNotFound Kind = "NOT_FOUND"

	// KindConflict covers uniqueness violations: duplicate active account
	// names, duplicate category name+kind, restore into a taken name.
	KindConflict Kind = "CONFLICT"

	// KindInvalidInput covers malformed or inconsistent caller input.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindUnauthorized covers failed credential checks.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindInvariant marks data observed in a state the ledger invariants
	// forbid. The operation aborts rather than silently repairing rows.
	KindInvariant Kind = "INVARIANT_VIOLATION"

	// KindInternal is everything else.
	KindInternal Kind = "INTERNAL"
)

// Error is a caller-facing service failure. Code refines Kind for clients
// that need to distinguish, say, a category kind mismatch from a bad amount.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds a service error with an explicit code.
func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: message}
}

func conflict(message string) *Error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: message}
}

func invalidInput(code, message string) *Error {
	return &Error{Kind: KindInvalidInput, Code: code, Message: message}
}

func unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// AsError extracts the service error, or wraps err as internal so the API
// boundary never exposes datastore detail.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: "operation failed"}
}

// KindOf reports the error's kind, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	return AsError(err).Kind
}
