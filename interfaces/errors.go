package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no client, document or code matches a query.
	ErrNotFound = errors.New("not found")

	// ErrNotEligible is returned when a role may not sign a document yet,
	// e.g. the client before the lawyer. No code is issued in that case.
	ErrNotEligible = errors.New("document not eligible for signature")

	// ErrAlreadySigned is returned when the requesting role has already signed.
	ErrAlreadySigned = errors.New("document already signed by role")

	// ErrDeliveryFailed is returned when a code could not be delivered.
	// Nothing is persisted and the request may be retried.
	ErrDeliveryFailed = errors.New("code delivery failed")

	// ErrStampFailed is returned when rendering or merging the stamp fails.
	// The prior revision stays current and no flags are changed.
	ErrStampFailed = errors.New("stamp failed")

	// ErrStorage is returned when the persistence layer fails. The surrounding
	// transaction is aborted.
	ErrStorage = errors.New("storage failure")

	// ErrConflict is returned when a guarded commit finds the document in a
	// different state than the one the signature was prepared against.
	ErrConflict = errors.New("document state changed concurrently")

	// ErrInvalidUpload is returned for intake uploads that are not acceptable PDFs.
	ErrInvalidUpload = errors.New("invalid upload")
)

// OutcomeKind enumerates the results of a code verification.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotFound
	OutcomeExpired
	OutcomeMismatch
	OutcomeExhausted
	OutcomeAlreadySigned
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeAlreadySigned:
		return "already_signed"
	default:
		return "unknown"
	}
}

// VerifyOutcome is the structured result of checking a candidate code.
// AttemptsUsed and AttemptsRemaining are meaningful for Mismatch and Exhausted.
type VerifyOutcome struct {
	Kind              OutcomeKind
	AttemptsUsed      int
	AttemptsRemaining int
}

// Terminal reports whether the caller must restart the flow with a fresh code.
func (o VerifyOutcome) Terminal() bool {
	switch o.Kind {
	case OutcomeNotFound, OutcomeExpired, OutcomeExhausted:
		return true
	default:
		return false
	}
}

func (o VerifyOutcome) String() string {
	if o.Kind == OutcomeMismatch {
		return fmt.Sprintf("mismatch (%d/%d)", o.AttemptsUsed, MaxCodeAttempts)
	}
	return o.Kind.String()
}
