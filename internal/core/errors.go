package core

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so call sites can pick fallback
// behavior instead of swallowing errors.
type Kind string

const (
	KindVerificationFailure        Kind = "verification_failure"
	KindDuplicateDelivery          Kind = "duplicate_delivery"
	KindUnresolvableCustomer       Kind = "unresolvable_customer"
	KindNoProductMatch             Kind = "no_product_match"
	KindPaymentVerificationTimeout Kind = "payment_verification_timeout"
	KindOutboundSendFailure        Kind = "outbound_send_failure"
	KindIllegalTransition          Kind = "illegal_transition"
	KindNotFound                   Kind = "not_found"
)

// PipelineError carries a Kind alongside the underlying cause.
type PipelineError struct {
	Kind Kind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Is lets errors.Is match two pipeline errors by Kind.
func (e *PipelineError) Is(target error) bool {
	var pe *PipelineError
	if errors.As(target, &pe) {
		return pe.Kind == e.Kind
	}
	return false
}

// NewError wraps err with a pipeline kind.
func NewError(kind Kind, err error) error {
	return &PipelineError{Kind: kind, Err: err}
}

// Errorf builds a kinded error from a format string.
func Errorf(kind Kind, format string, args ...any) error {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
