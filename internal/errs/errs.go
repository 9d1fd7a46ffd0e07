// Package errs defines the error taxonomy shared by the house, wallet and bill packages.
//
// Every domain failure is one of a small set of sentinel *Error values. Callers add
// detail by wrapping (fmt.Errorf("%w: ...", errs.ErrNotFound)) and inspect with
// errors.Is or KindOf. Errors that are not *Error (storage, network) are KindInternal.
package errs

import "errors"

// Kind groups sentinels into the categories the transport layer maps to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindNotFound
	KindValidation
	KindAlreadyInState
	KindInsufficientFunds
	KindExternalVerificationFailed
	KindUnsupportedMethod
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindAlreadyInState:
		return "already_in_state"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindExternalVerificationFailed:
		return "external_verification_failed"
	case KindUnsupportedMethod:
		return "unsupported_method"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a domain error with a stable machine-readable reason.
type Error struct {
	kind   Kind
	reason string
	msg    string
}

// New creates a sentinel error.
func New(kind Kind, reason, msg string) *Error {
	return &Error{kind: kind, reason: reason, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the category of the error.
func (e *Error) Kind() Kind { return e.kind }

// Reason returns the machine-readable reason, e.g. "ALREADY_PAID".
func (e *Error) Reason() string { return e.reason }

var (
	ErrUnauthorized              = New(KindUnauthorized, "UNAUTHORIZED", "not authorized")
	ErrNotFound                  = New(KindNotFound, "NOT_FOUND", "not found")
	ErrNotInHouse                = New(KindNotFound, "NOT_IN_HOUSE", "not in a house")
	ErrValidation                = New(KindValidation, "VALIDATION", "invalid request")
	ErrInvalidCode               = New(KindValidation, "INVALID_CODE", "invalid join code")
	ErrCannotRemoveAdmin         = New(KindValidation, "CANNOT_REMOVE_ADMIN", "the house admin cannot be removed")
	ErrAlreadyMember             = New(KindAlreadyInState, "ALREADY_MEMBER", "already in house")
	ErrAlreadyInHouse            = New(KindAlreadyInState, "ALREADY_IN_HOUSE", "already belongs to a house")
	ErrAlreadyPaid               = New(KindAlreadyInState, "ALREADY_PAID", "already paid")
	ErrReferenceUsed             = New(KindAlreadyInState, "REFERENCE_USED", "payment reference already credited")
	ErrNotAssigned               = New(KindUnauthorized, "NOT_ASSIGNED", "not assigned to this bill")
	ErrInsufficientBalance       = New(KindInsufficientFunds, "INSUFFICIENT_BALANCE", "insufficient balance")
	ErrInsufficientHouseBalance  = New(KindInsufficientFunds, "INSUFFICIENT_HOUSE_BALANCE", "insufficient house balance")
	ErrPaymentVerificationFailed = New(KindExternalVerificationFailed, "PAYMENT_VERIFICATION_FAILED", "payment verification failed")
	ErrUnsupportedMethod         = New(KindUnsupportedMethod, "UNSUPPORTED_METHOD", "payment method not supported")
	ErrConflict                  = New(KindConflict, "CONFLICT", "concurrent update, retry the request")
	ErrJoinCodeExhausted         = New(KindInternal, "JOIN_CODE_EXHAUSTED", "could not allocate a unique join code")
	ErrDuplicate                 = New(KindConflict, "DUPLICATE", "unique constraint violated")
)

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// ReasonOf returns the reason of the first *Error in err's chain, or "INTERNAL".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.reason
	}
	return "INTERNAL"
}
