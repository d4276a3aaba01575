package model

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateClass  = errors.New("duplicate class")
	ErrDuplicateMember = errors.New("duplicate member")
	ErrUnknownType     = errors.New("unknown type")
	ErrUnresolvedBound = errors.New("unresolvable bound")
	ErrInvalidMethod   = errors.New("invalid method")
	ErrInvalidField    = errors.New("invalid field")
)

// Error is a model-build failure localized to a class and, when known, a member.
type Error struct {
	Class  string
	Member string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Class != "" {
		b.WriteString("class ")
		b.WriteString(e.Class)
		if e.Member != "" {
			b.WriteByte('.')
			b.WriteString(e.Member)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsModelError checks if err is a model error and returns it.
func IsModelError(err error) (*Error, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
