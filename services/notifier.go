package services

import (
	"ticket-ledger/models"
	"time"

	pubnub "github.com/pubnub/go"
)

// PubNubNotifier pushes ledger commits over PubNub. Event lifecycle
// changes go to the shared "events" channel, purchases additionally to
// the buyer's wallet channel.
type PubNubNotifier struct {
	pubnub *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pubnub: pn}
}

func (n *PubNubNotifier) EventCreated(event models.Event) {
	n.pubnub.Publish().
		Channel("events").
		Message(map[string]any{
			"type":     "event_created",
			"event_id": event.ID,
			"name":     event.Name,
			"creator":  event.Creator,
		}).
		Execute()
}

func (n *PubNubNotifier) EventToggled(event models.Event) {
	n.pubnub.Publish().
		Channel("events").
		Message(map[string]any{
			"type":      "event_toggled",
			"event_id":  event.ID,
			"is_active": event.IsActive,
		}).
		Execute()
}

func (n *PubNubNotifier) TicketsSold(event models.Event, buyer string, ticketIDs []uint64) {
	notification := models.PurchaseNotification{
		Type:      "ticket_sold",
		EventID:   event.ID,
		Quantity:  len(ticketIDs),
		TicketIDs: ticketIDs,
		Timestamp: time.Now(),
	}

	n.pubnub.Publish().
		Channel("wallet-" + buyer).
		Message(notification).
		Execute()

	n.pubnub.Publish().
		Channel("events").
		Message(map[string]any{
			"type":         "ticket_sold",
			"event_id":     event.ID,
			"tickets_sold": event.TicketsSold,
			"remaining":    event.Remaining(),
		}).
		Execute()
}
