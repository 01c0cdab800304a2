package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"ticket-ledger/models"
	"ticket-ledger/services"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

type TicketHandler struct {
	app    *pocketbase.PocketBase
	ledger *services.LedgerService
}

func NewTicketHandler(app *pocketbase.PocketBase, ledger *services.LedgerService) *TicketHandler {
	return &TicketHandler{
		app:    app,
		ledger: ledger,
	}
}

// BuyTicket mints tickets against the ledger and records a purchase
// receipt. The attached payment must cover price * quantity; any excess
// is retained.
func (h *TicketHandler) BuyTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID  uint64 `json:"event_id"`
		Quantity int    `json:"quantity"`
		Payment  string `json:"payment"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	payment, err := decimal.NewFromString(req.Payment)
	if err != nil {
		return apis.NewBadRequestError("Invalid payment amount", err)
	}

	wallet := callerWallet(e)
	issues, err := h.ledger.BuyTicket(e.Request.Context(), wallet, req.EventID, req.Quantity, payment)
	if err != nil {
		return apiError(err)
	}

	receiptRef := uuid.NewString()
	h.saveReceipt(e, receiptRef, wallet, req.EventID, req.Quantity, payment, issues)

	return e.JSON(http.StatusOK, map[string]any{
		"receipt_ref": receiptRef,
		"event_id":    req.EventID,
		"quantity":    req.Quantity,
		"amount_paid": payment,
		"tickets":     issues,
	})
}

func (h *TicketHandler) GetTicketsByAddress(e *core.RequestEvent) error {
	address := e.Request.PathValue("address")
	if address == "" {
		return apis.NewBadRequestError("Address is required", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"address": address,
		"events":  h.ledger.GetTicketsByAddress(address),
		"tickets": h.ledger.GetOwnedTickets(address),
	})
}

func (h *TicketHandler) GetBalance(e *core.RequestEvent) error {
	address := e.Request.PathValue("address")
	if address == "" {
		return apis.NewBadRequestError("Address is required", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"address": address,
		"balance": h.ledger.BalanceOf(address),
	})
}

// CheckInTicket redeems a ticket with the claim code issued at purchase.
func (h *TicketHandler) CheckInTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID, err := strconv.ParseUint(e.Request.PathValue("ticketId"), 10, 64)
	if err != nil {
		return apis.NewBadRequestError("Invalid ticket id", err)
	}

	var req struct {
		ClaimCode string `json:"claim_code"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.ledger.CheckInTicket(e.Request.Context(), callerWallet(e), ticketID, req.ClaimCode); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id":  ticketID,
		"checked_in": true,
	})
}

// saveReceipt persists the purchases record. The ledger has already
// committed, so a receipt failure is logged rather than surfaced.
func (h *TicketHandler) saveReceipt(e *core.RequestEvent, receiptRef, wallet string, eventID uint64, quantity int, payment decimal.Decimal, issues []models.TicketIssue) {
	collection, err := h.app.FindCollectionByNameOrId("purchases")
	if err != nil {
		log.Printf("Receipt: purchases collection missing: %v", err)
		return
	}

	ticketIDs := make([]uint64, len(issues))
	for i, issue := range issues {
		ticketIDs[i] = issue.TicketID
	}
	ticketIDsJSON, _ := json.Marshal(ticketIDs)

	record := core.NewRecord(collection)
	record.Set("receipt_ref", receiptRef)
	record.Set("user", e.Auth.Id)
	record.Set("wallet", wallet)
	record.Set("event_id", eventID)
	record.Set("quantity", quantity)
	record.Set("amount_paid", payment.String())
	record.Set("ticket_ids", string(ticketIDsJSON))

	if err := h.app.Save(record); err != nil {
		log.Printf("Receipt: failed to save purchase %s: %v", receiptRef, err)
	}
}
