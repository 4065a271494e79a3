// Package apperrors implements the engine's structured error taxonomy:
// a stable code prefix, an ordered code chain from innermost cause to
// outermost, and bilingual messages. It replaces the original system's
// dynamic cross-crate downcasting with an explicit nested source field.
package apperrors

import "fmt"

// Error is the engine's structured error type.
type Error struct {
	Code      string
	Chain     []string
	MessageEN string
	MessageZH string
	source    error
}

// New creates a root error with no parent.
func New(code, messageEN, messageZH string) *Error {
	return &Error{
		Code:      code,
		Chain:     []string{code},
		MessageEN: messageEN,
		MessageZH: messageZH,
	}
}

// Wrap creates a new error whose chain is the parent's chain extended
// by code; parent becomes the new error's source.
func Wrap(code string, parent *Error, messageEN, messageZH string) *Error {
	e := &Error{
		Code:      code,
		MessageEN: messageEN,
		MessageZH: messageZH,
		source:    parent,
	}
	if parent != nil {
		e.Chain = append(append([]string{}, parent.Chain...), code)
	} else {
		e.Chain = []string{code}
	}
	return e
}

// WrapError wraps an arbitrary Go error (e.g. from an external
// collaborator) as the source of a new structured error.
func WrapError(code string, source error, messageEN, messageZH string) *Error {
	return &Error{
		Code:      code,
		Chain:     []string{code},
		MessageEN: messageEN,
		MessageZH: messageZH,
		source:    source,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.MessageEN)
}

// Unwrap exposes the nested source for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.source
}

// CodeChain returns the ordered code chain, innermost cause first.
func (e *Error) CodeChain() []string {
	if e == nil {
		return nil
	}
	return e.Chain
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	var ae *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ae = e
			for _, c := range ae.Chain {
				if c == code {
					return true
				}
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return false
}
