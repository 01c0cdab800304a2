package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the off-ledger receipt persisted for a successful buy. The
// ledger itself stays authoritative for ownership; receipts feed the
// admin dashboard and booking history.
type Purchase struct {
	ReceiptRef string          `json:"receipt_ref"`
	UserID     string          `json:"user_id"`
	Wallet     string          `json:"wallet"`
	EventID    uint64          `json:"event_id"`
	Quantity   int             `json:"quantity"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	TicketIDs  []uint64        `json:"ticket_ids"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PurchaseNotification is published to the buyer's channel after a
// successful commit.
type PurchaseNotification struct {
	Type      string    `json:"type"`
	EventID   uint64    `json:"event_id"`
	Quantity  int       `json:"quantity"`
	TicketIDs []uint64  `json:"ticket_ids"`
	Timestamp time.Time `json:"timestamp"`
}
