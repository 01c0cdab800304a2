package models

import (
	"time"
)

type Ticket struct {
	ID          uint64    `json:"id"`
	EventID     uint64    `json:"event_id"`
	Owner       string    `json:"owner"`
	PurchasedAt time.Time `json:"purchased_at"`
	CheckedIn   bool      `json:"checked_in"`
	ClaimHash   []byte    `json:"-"` // bcrypt hash of the claim code, never serialized
}

// TicketIssue is returned to the buyer once per minted ticket. The claim
// code is only available at purchase time; the ledger keeps its hash.
type TicketIssue struct {
	TicketID  uint64 `json:"ticket_id"`
	ClaimCode string `json:"claim_code"`
}
