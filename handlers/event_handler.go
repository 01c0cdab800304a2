package handlers

import (
	"net/http"
	"strconv"
	"ticket-ledger/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

type EventHandler struct {
	app    *pocketbase.PocketBase
	ledger *services.LedgerService
}

func NewEventHandler(app *pocketbase.PocketBase, ledger *services.LedgerService) *EventHandler {
	return &EventHandler{
		app:    app,
		ledger: ledger,
	}
}

func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       string `json:"price"`
		MaxTickets  int    `json:"max_tickets"`
		EventDate   int64  `json:"event_date"`
		Location    string `json:"location"`
		Category    string `json:"category"`
		ImageCID    string `json:"image_cid"`
		MetadataCID string `json:"metadata_cid"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return apis.NewBadRequestError("Invalid price", err)
	}

	eventID, err := h.ledger.CreateEvent(e.Request.Context(), callerWallet(e), services.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		MaxTickets:  req.MaxTickets,
		EventDate:   req.EventDate,
		Location:    req.Location,
		Category:    req.Category,
		ImageCID:    req.ImageCID,
		MetadataCID: req.MetadataCID,
	})
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id": eventID,
		"creator":  callerWallet(e),
	})
}

func (h *EventHandler) GetActiveEvents(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, h.ledger.GetActiveEvents())
}

func (h *EventHandler) GetEventDetails(e *core.RequestEvent) error {
	eventID, err := parseEventID(e)
	if err != nil {
		return apis.NewBadRequestError("Invalid event id", err)
	}

	event, err := h.ledger.GetEventDetails(eventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, event)
}

func (h *EventHandler) ToggleEventActive(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID, err := parseEventID(e)
	if err != nil {
		return apis.NewBadRequestError("Invalid event id", err)
	}

	isActive, err := h.ledger.ToggleEventActive(e.Request.Context(), callerWallet(e), eventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":  eventID,
		"is_active": isActive,
	})
}

func parseEventID(e *core.RequestEvent) (uint64, error) {
	return strconv.ParseUint(e.Request.PathValue("eventId"), 10, 64)
}
