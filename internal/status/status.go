package status

import "errors"

// Ledger failure reasons. Handlers map these onto HTTP errors; the
// messages mirror what the purchase and management flows surface to
// the front-end.
var (
	ErrEventNotFound       = errors.New("ledger: event not found")
	ErrTicketNotFound      = errors.New("ledger: ticket not found")
	ErrInvalidQuantity     = errors.New("ledger: quantity must be at least 1")
	ErrInvalidInput        = errors.New("ledger: invalid input")
	ErrEventInactive       = errors.New("ledger: event is not active")
	ErrSoldOut             = errors.New("ledger: not enough tickets")
	ErrInsufficientPayment = errors.New("ledger: insufficient payment")
	ErrNotAuthorized       = errors.New("ledger: only creator or owner")
	ErrTicketUsed          = errors.New("ledger: ticket already checked in")
	ErrInvalidClaimCode    = errors.New("ledger: invalid claim code")
)

// IsValidation reports whether err is a malformed-input failure that the
// caller can fix and retry.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidInput)
}

// IsState reports whether err is a rejection caused by the event's
// current lifecycle state rather than the input itself.
func IsState(err error) bool {
	return errors.Is(err, ErrEventInactive) ||
		errors.Is(err, ErrSoldOut) ||
		errors.Is(err, ErrTicketUsed)
}
