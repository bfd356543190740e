// Package domain provides canonical error types for the bridge.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a pipeline failure.
type ErrorKind string

const (
	// KindUnrecognizedRequest indicates the webhook call was neither a
	// verification handshake nor a page event.
	KindUnrecognizedRequest ErrorKind = "unrecognized_request"

	// KindClassificationFailed indicates the image classifier call failed.
	KindClassificationFailed ErrorKind = "classification_failed"

	// KindEngineUnavailable indicates the conversational engine could not be
	// reached or returned a malformed reply.
	KindEngineUnavailable ErrorKind = "engine_unavailable"

	// KindStoreUnavailable indicates the session store could not be reached.
	KindStoreUnavailable ErrorKind = "store_unavailable"

	// KindDeliveryFailed indicates the messaging platform rejected the reply.
	KindDeliveryFailed ErrorKind = "delivery_failed"

	// KindUnexpected covers everything else.
	KindUnexpected ErrorKind = "unexpected_error"
)

const (
	// GenericFailureMessage is what the webhook caller sees for any failure
	// other than an unrecognized request.
	GenericFailureMessage = "An unexpected error occurred. Please try again later."

	// UnrecognizedRequestMessage is returned when the request carries neither
	// a page object nor a valid verification handshake.
	UnrecognizedRequestMessage = "Neither a page type request nor a verification type request detected"
)

// Sentinels for errors.Is comparisons. Matching is by kind only.
var (
	ErrUnrecognizedRequest  = &Error{Kind: KindUnrecognizedRequest}
	ErrClassificationFailed = &Error{Kind: KindClassificationFailed}
	ErrEngineUnavailable    = &Error{Kind: KindEngineUnavailable}
	ErrStoreUnavailable     = &Error{Kind: KindStoreUnavailable}
	ErrDeliveryFailed       = &Error{Kind: KindDeliveryFailed}
	ErrUnexpected           = &Error{Kind: KindUnexpected}
)

// Error is the typed failure carried by a failed pipeline run.
type Error struct {
	// Kind is the category of failure.
	Kind ErrorKind

	// StatusCode is the upstream HTTP status, when one is known.
	// Only meaningful for KindDeliveryFailed.
	StatusCode int

	// Message is a short internal description.
	Message string

	// Err is the underlying cause.
	Err error
}

// NewError creates a typed error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// DeliveryFailed creates a KindDeliveryFailed error for the given status.
// A zero status means the request never produced a response.
func DeliveryFailed(statusCode int, message string, err error) *Error {
	return &Error{Kind: KindDeliveryFailed, StatusCode: statusCode, Message: message, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	if e.Kind == KindDeliveryFailed && e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, msg)
	}
	if msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with a
// non-zero StatusCode also has to match the status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// UserMessage returns the text shown to the webhook caller.
func (e *Error) UserMessage() string {
	if e.Kind == KindUnrecognizedRequest {
		if e.Message != "" {
			return e.Message
		}
		return UnrecognizedRequestMessage
	}
	return GenericFailureMessage
}

// AsError converts any error into an *Error, wrapping unknown errors as
// KindUnexpected. Returns nil for a nil error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(KindUnexpected, "", err)
}

// KindOf returns the kind of err, or KindUnexpected for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
