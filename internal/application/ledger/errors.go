package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies ledger failures.
type Kind string

const (
	KindValidation    Kind = "ValidationError"
	KindAuthorization Kind = "AuthorizationError"
	KindState         Kind = "StateError"
	KindNotFound      Kind = "NotFoundError"
	KindPayment       Kind = "PaymentError"
	KindSettlement    Kind = "SettlementError"
	KindReentrancy    Kind = "ReentrancyError"
)

// Error is a classified ledger failure. errors.Is matches on Kind against the
// Err* sentinels below.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrState         = &Error{Kind: KindState}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrPayment       = &Error{Kind: KindPayment}
	ErrSettlement    = &Error{Kind: KindSettlement}
	ErrReentrancy    = &Error{Kind: KindReentrancy}
)

func newError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newError(KindAuthorization, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return newError(KindState, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

func Payment(format string, args ...interface{}) error {
	return newError(KindPayment, format, args...)
}

func SettlementFailed(format string, args ...interface{}) error {
	return newError(KindSettlement, format, args...)
}

func Reentrant(format string, args ...interface{}) error {
	return newError(KindReentrancy, format, args...)
}

// KindOf returns the Kind of the first ledger Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
