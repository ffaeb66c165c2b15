package lserr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，调用方据此映射HTTP状态码
type Kind string

const (
	KindBadRequest    Kind = "BadRequest"
	KindNotFound      Kind = "NotFound"
	KindAlreadyExists Kind = "AlreadyExists"
	KindInternal      Kind = "Internal"
)

/**
 * Error carries an error kind plus a human readable detail string
 * @property {Kind} Kind - Error category used for transport status mapping
 * @property {string} Message - Human readable detail for the caller
 * @property {error} Cause - Underlying error, if any (IO errors always carry one)
 */
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(KindBadRequest, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func AlreadyExists(format string, args ...interface{}) *Error {
	return New(KindAlreadyExists, format, args...)
}

// Internal wraps an underlying failure (filesystem, process, network) together
// with the path or operation being attempted.
func Internal(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Cause: cause}
}

/**
 * KindOf extracts the kind from an error chain
 * @param {error} err - Error to inspect
 * @returns {Kind} Categorized kind, KindInternal for unclassified errors
 */
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the transport level status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
