// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without string matching.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInvalidState    Kind = "invalid_state"
	KindExternalService Kind = "external_service"
	KindUnknown         Kind = "unknown"
)

// AppError is the single error type returned by the engine.
type AppError struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func NewValidation(op, format string, args ...any) error {
	return &AppError{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(op, format string, args ...any) error {
	return &AppError{Kind: KindConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidState(op, format string, args ...any) error {
	return &AppError{Kind: KindInvalidState, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewExternal wraps a store or feed failure.
func NewExternal(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return &AppError{Kind: KindExternalService, Op: op, Err: err}
}

// Helper constructors
func NewCampaignNotFound(id string) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("campaign with ID %s not found", id)}
}

func NewApplicantNotFound(campaignID, applicantID string) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("applicant %s not found on campaign %s", applicantID, campaignID)}
}

func NewInfluencerNotFound(ref string) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("influencer %s not found", ref)}
}

func NewPaymentNotFound(id string) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("payment with ID %s not found", id)}
}
