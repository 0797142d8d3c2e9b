package model

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a protocol error. Callers branch on Kind, never on messages.
type Kind string

const (
	KindShapeSpecDefect         Kind = "ShapeSpecDefect"
	KindStructureMismatch       Kind = "StructureMismatch"
	KindTypeMismatch            Kind = "TypeMismatch"
	KindDuplicateDocument       Kind = "DuplicateDocument"
	KindIdentityMismatch        Kind = "IdentityMismatch"
	KindSignatureInvalid        Kind = "SignatureInvalid"
	KindWorkflowViolation       Kind = "WorkflowViolation"
	KindNotFound                Kind = "NotFound"
	KindUnknownUser             Kind = "UnknownUser"
	KindBadToken                Kind = "BadToken"
	KindAlreadyUsed             Kind = "AlreadyUsed"
	KindQuotaExceeded           Kind = "QuotaExceeded"
	KindExtensionNotImplemented Kind = "ExtensionNotImplemented"
)

// Class groups kinds by who has to act on them.
type Class string

const (
	ClassDefect        Class = "defect"
	ClassValidation    Class = "validation"
	ClassRead          Class = "read"
	ClassAuthorization Class = "authorization"
	ClassExtension     Class = "extension"
)

func (k Kind) Class() Class {
	switch k {
	case KindShapeSpecDefect:
		return ClassDefect
	case KindStructureMismatch, KindTypeMismatch, KindDuplicateDocument, KindIdentityMismatch, KindSignatureInvalid,
		KindWorkflowViolation:
		return ClassValidation
	case KindNotFound:
		return ClassRead
	case KindUnknownUser, KindBadToken, KindAlreadyUsed, KindQuotaExceeded:
		return ClassAuthorization
	case KindExtensionNotImplemented:
		return ClassExtension
	default:
		return ClassDefect
	}
}

// Error is the structured error returned by the document and authorization layers.
// Expected echoes the declared structure or type for validation failures.
type Error struct {
	Kind     Kind
	Message  string
	Expected string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Kind) + ": " + e.Message
	if e.Expected != "" {
		msg += ", expected " + e.Expected
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind Kind, cause error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithExpected attaches the expected structure or type to a validation error.
func WithExpected(err error, expected string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	copied := *e
	copied.Expected = expected
	return &copied
}

// KindOf returns the Kind of err, or "" when err is not a protocol error.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
