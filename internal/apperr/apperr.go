// Package apperr defines the tagged error type shared by repositories,
// validation rules and HTTP handlers. Each error carries an explicit Kind
// plus a user-facing message, so handlers pick the HTTP status by switching
// on the kind instead of matching message text.
package apperr

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failure for status mapping.
type Kind int

const (
	KindInternal      Kind = iota // unclassified failure -> 500
	KindValidation                // malformed/missing input -> 400
	KindNotFound                  // referenced entity absent -> 404
	KindAuthorization             // business eligibility rule violated -> 403
	KindConflict                  // seat/time already taken -> 409
	KindUnavailable               // store not reachable -> 503
)

// Error is a business failure with a message safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(message string) *Error    { return New(KindValidation, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Authorization(message string) *Error { return New(KindAuthorization, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func Unavailable(message string) *Error   { return New(KindUnavailable, message) }

// KindOf extracts the kind of err. Untagged errors are classified as
// Unavailable when they look like a lost store connection, otherwise
// Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if isConnError(err) {
		return KindUnavailable
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// isConnError recognizes driver/network failures that mean the store is
// unreachable rather than the request being wrong.
func isConnError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var ne *net.OpError
	return errors.As(err, &ne)
}
