package handlers

import (
	"errors"
	"ticket-ledger/internal/status"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// apiError maps ledger failures onto API errors. Every precondition
// failure surfaces its reason to the caller; the front-end owns retry
// and presentation.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound), errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError(err.Error(), err)
	case errors.Is(err, status.ErrNotAuthorized):
		return apis.NewForbiddenError(err.Error(), err)
	case status.IsValidation(err),
		status.IsState(err),
		errors.Is(err, status.ErrInsufficientPayment),
		errors.Is(err, status.ErrInvalidClaimCode):
		return apis.NewBadRequestError(err.Error(), err)
	default:
		return apis.NewBadRequestError("Operation failed", err)
	}
}

// callerWallet resolves the authenticated caller's ledger identity. The
// wallet address always comes from the auth record, never from the
// request body.
func callerWallet(e *core.RequestEvent) string {
	if e.Auth == nil {
		return ""
	}
	if wallet := e.Auth.GetString("wallet_address"); wallet != "" {
		return wallet
	}
	return e.Auth.Id
}
