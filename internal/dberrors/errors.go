// Package dberrors defines the error taxonomy shared by the schema
// translator and both wire backends: a generic database error, a
// connection-level error, a backend-coded error carrying the server's own
// error code, and an aggregate of coded errors (PostgreSQL may report
// several fields for a single failure).
package dberrors

import (
	"errors"
	"fmt"
	"strings"
)

// DatabaseError is the generic, user-visible failure category: escape
// failures, bind type mismatches, and anything else not tied to a specific
// wire error code.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// New wraps err under op as a *DatabaseError.
func New(op string, err error) *DatabaseError {
	return &DatabaseError{Op: op, Err: err}
}

// Newf builds a *DatabaseError from a format string, like fmt.Errorf.
func Newf(op, format string, args ...any) *DatabaseError {
	return &DatabaseError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ConnectionError covers unexpected/malformed packets, protocol mismatches,
// authentication failures, and closed sockets.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return "connection: " + e.Op
	}
	return fmt.Sprintf("connection: %s: %s", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ErrConnectionClosed is returned (wrapped in a *ConnectionError) when a
// socket read returns 0 bytes with no error: the peer has closed the
// connection.
var ErrConnectionClosed = errors.New("connection closed by peer")

// WrongPacketSequence is a specialization of ConnectionError: the stream
// received an opcode it did not expect at this point in the protocol.
type WrongPacketSequence struct {
	Expected byte
	Got      byte
}

func (e *WrongPacketSequence) Error() string {
	return fmt.Sprintf("connection: wrong packet sequence: expected %q, got %q", e.Expected, e.Got)
}

// CodedError carries a backend-specific error code and human message.
// PostgreSQL codes are a single field-tag character (e.g. 'C' for SQLSTATE
// class, rendered here with the field letter); MySQL codes are the
// numeric ER_xxx value formatted as a string. Backend is the short dialect
// name ("postgresql" or "mysql").
type CodedError struct {
	Backend string
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("(%s-%s) %s", e.Backend, e.Code, e.Message)
}

// MultiCodedError aggregates one or more CodedError values, as PostgreSQL
// error responses may carry several fields describing the same failure.
type MultiCodedError struct {
	Errors []*CodedError
}

func (e *MultiCodedError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		parts[i] = ce.Error()
	}
	return strings.Join(parts, ", ")
}

func (e *MultiCodedError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		errs[i] = ce
	}
	return errs
}

// TypeMismatch reports that a result cell could not be bound to an
// entity field of the declared type.
type TypeMismatch struct {
	Field    string
	Expected string
	Got      string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch binding field %q: expected %s, got %s", e.Field, e.Expected, e.Got)
}
