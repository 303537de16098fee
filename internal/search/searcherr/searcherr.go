// Package searcherr is the error taxonomy of the discovery pipeline.
package searcherr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindParse: the brief could not be turned into a valid query. Fatal, no partial results.
	KindParse Kind = "parse"
	// KindProvider: an external call exhausted its retries.
	KindProvider Kind = "provider"
	// KindValidation: weights or query violate an invariant. Raised before any external call.
	KindValidation Kind = "validation"
	// KindPersistence: the store is unavailable. Nothing is partially committed.
	KindPersistence Kind = "persistence"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind) + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Parse(op string, err error) error       { return New(KindParse, op, err) }
func Provider(op string, err error) error    { return New(KindProvider, op, err) }
func Validation(op string, err error) error  { return New(KindValidation, op, err) }
func Persistence(op string, err error) error { return New(KindPersistence, op, err) }

func Parsef(op, format string, args ...any) error {
	return New(KindParse, op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
