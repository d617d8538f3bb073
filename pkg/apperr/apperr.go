// Package apperr classifies errors crossing the service/HTTP boundary.
package apperr

import "errors"

// Kind is the error category reported to callers.
type Kind uint8

const (
	// KindUnknown is any error that was not classified.
	KindUnknown Kind = iota
	// KindValidation is missing or malformed caller input.
	KindValidation
	// KindNotFound is a referenced lecture or audio that does not exist.
	KindNotFound
	// KindStorage is a database or file storage failure.
	KindStorage
	// KindExternal is a transcription process or language model failure.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Error carries a caller-facing message and the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// NotFound returns a KindNotFound error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Storage wraps a persistence failure.
func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// External wraps a failure of an external process or service.
func External(msg string, err error) error {
	return &Error{Kind: KindExternal, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
