// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpstripe

import "fmt"

// Kind classifies the three error taxonomies surfaced to the caller
// (§7): socket-level I/O failures, TCP connect/accept failures, and
// logic/configuration errors. Strings are diagnostic only — callers are
// not expected to pattern-match on them, but Code is exposed for the
// rare caller that wants to.
type Kind uint8

const (
	KindIO Kind = iota + 1
	KindTCP
	KindInner
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IOError"
	case KindTCP:
		return "TCPError"
	case KindInner:
		return "InnerError"
	default:
		return "UnknownError"
	}
}

// Code ranges, one block per Kind, in the style of a coded-error
// taxonomy: a numeric code groups related failures without forcing the
// caller to parse the diagnostic string.
const (
	CodeIOUnknown Code = 1000 + iota
	CodeIOShortTransfer
	CodeIOPeerClosed
	CodeIOListen
)

const (
	CodeTCPUnknown Code = 2000 + iota
	CodeTCPDial
	CodeTCPAccept
)

const (
	CodeInnerUnknown Code = 3000 + iota
	CodeInnerBadAddressFamily
	CodeInnerNotFound
	CodeInnerLimitExceeded
	CodeInnerClosed
)

// Code is a numeric classification, similar in spirit to an HTTP status
// code, attached to every transportError.
type Code uint16

// transportError is the concrete error type behind IOError, TCPError,
// and InnerError. It captures an optional parent so failures can be
// traced back to the syscall or library error that caused them.
type transportError struct {
	kind   Kind
	code   Code
	detail string
	parent error
}

func (e *transportError) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s(%d): %s: %v", e.kind, e.code, e.detail, e.parent)
	}
	return fmt.Sprintf("%s(%d): %s", e.kind, e.code, e.detail)
}

func (e *transportError) Unwrap() error { return e.parent }

// Kind reports which of the three §7 taxonomies produced this error.
func (e *transportError) Kind() Kind { return e.kind }

// Code reports the numeric classification of this error.
func (e *transportError) Code() Code { return e.code }

func newErr(kind Kind, code Code, parent error, format string, args ...any) error {
	return &transportError{kind: kind, code: code, detail: fmt.Sprintf(format, args...), parent: parent}
}

// IOErrorf builds a socket-level I/O error (§7 IOError).
func IOErrorf(code Code, parent error, format string, args ...any) error {
	return newErr(KindIO, code, parent, format, args...)
}

// TCPErrorf builds a TCP connect/accept error (§7 TCPError).
func TCPErrorf(code Code, parent error, format string, args ...any) error {
	return newErr(KindTCP, code, parent, format, args...)
}

// InnerErrorf builds a logic/configuration error (§7 InnerError).
func InnerErrorf(code Code, parent error, format string, args ...any) error {
	return newErr(KindInner, code, parent, format, args...)
}

// KindOf reports the Kind of err if it is (or wraps) a transportError.
func KindOf(err error) (Kind, bool) {
	var te *transportError
	if ok := as(err, &te); ok {
		return te.kind, true
	}
	return 0, false
}

// as is a tiny local errors.As to avoid importing the stdlib errors
// package solely for this one call site used by KindOf.
func as(err error, target **transportError) bool {
	for err != nil {
		if te, ok := err.(*transportError); ok {
			*target = te
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ErrNotFound is returned by requestRegistry.poll (and related lookups)
// when an id is unknown — e.g. because the request already completed and
// was reaped (§4.7, §8 property 8).
var ErrNotFound = InnerErrorf(CodeInnerNotFound, nil, "id not found in registry")

// ErrClosed is returned when a request is submitted to an already-closed
// Communicator.
var ErrClosed = InnerErrorf(CodeInnerClosed, nil, "already closed")

// ErrTooManyComms is returned once MaxComms outstanding communicators of
// one kind are registered with an Engine.
var ErrTooManyComms = InnerErrorf(CodeInnerLimitExceeded, nil, "max_comms exceeded")
