package models

import (
	"github.com/shopspring/decimal"
)

type Event struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	MaxTickets  int             `json:"max_tickets"`
	TicketsSold int             `json:"tickets_sold"`
	EventDate   int64           `json:"event_date"` // unix seconds, informational only
	IsActive    bool            `json:"is_active"`
	Creator     string          `json:"creator"`
	ImageCID    string          `json:"image_cid,omitempty"`
	MetadataCID string          `json:"metadata_cid,omitempty"`
}

// Remaining returns how many tickets can still be sold.
func (e Event) Remaining() int {
	return e.MaxTickets - e.TicketsSold
}
