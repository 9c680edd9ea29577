package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Transfer errors
	ErrSelfTransfer  = errors.New("cannot transfer to own account")
	ErrInvalidAmount = errors.New("invalid transfer amount")

	// Identity errors
	ErrIdentityNotFound = errors.New("caller identity does not resolve to an account")

	// ErrConflict marks a transient concurrency failure (lock wait abort,
	// deadlock, stale version). Callers may retry; business errors above
	// must never be retried.
	ErrConflict = errors.New("concurrent modification conflict")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
	ErrPhoneTaken   = errors.New("phone already in use")
	ErrLastContact  = errors.New("cannot remove the last contact of its kind")

	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// IsBusinessError reports whether err is a deterministic business-rule
// rejection, as opposed to a transient conflict or an infrastructure
// failure.
func IsBusinessError(err error) bool {
	for _, e := range []error{
		ErrAccountNotFound,
		ErrInsufficientFunds,
		ErrSelfTransfer,
		ErrInvalidAmount,
		ErrIdentityNotFound,
		ErrUserNotFound,
		ErrEmailTaken,
		ErrPhoneTaken,
		ErrLastContact,
		ErrUnauthorized,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
