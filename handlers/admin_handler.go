package handlers

import (
	"net/http"
	"ticket-ledger/services"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type AdminHandler struct {
	app    *pocketbase.PocketBase
	ledger *services.LedgerService
}

func NewAdminHandler(app *pocketbase.PocketBase, ledger *services.LedgerService) *AdminHandler {
	return &AdminHandler{
		app:    app,
		ledger: ledger,
	}
}

type purchaseSummary struct {
	EventID   string `db:"event_id" json:"event_id"`
	Purchases int    `db:"purchases" json:"purchases"`
	Tickets   int    `db:"tickets" json:"tickets"`
}

// GetLedgerDashboard combines live ledger totals with per-event receipt
// aggregates.
func (h *AdminHandler) GetLedgerDashboard(e *core.RequestEvent) error {
	stats := h.ledger.Stats()

	summaries := []purchaseSummary{}
	err := h.app.DB().
		NewQuery(`
			SELECT event_id, COUNT(*) AS purchases, SUM(quantity) AS tickets
			FROM purchases
			GROUP BY event_id
			ORDER BY event_id`).
		All(&summaries)
	if err != nil {
		return apis.NewBadRequestError("Failed to aggregate purchases", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"total_events":  stats.TotalEvents,
		"active_events": stats.ActiveEvents,
		"total_tickets": stats.TotalTickets,
		"collected":     stats.Collected,
		"purchases":     summaries,
	})
}

type purchaseRecord struct {
	ReceiptRef string `db:"receipt_ref" json:"receipt_ref"`
	Wallet     string `db:"wallet" json:"wallet"`
	EventID    string `db:"event_id" json:"event_id"`
	Quantity   int    `db:"quantity" json:"quantity"`
	AmountPaid string `db:"amount_paid" json:"amount_paid"`
	Created    string `db:"created" json:"created"`
}

// GetPurchases lists receipts, optionally filtered by wallet.
func (h *AdminHandler) GetPurchases(e *core.RequestEvent) error {
	wallet := e.Request.URL.Query().Get("wallet")

	query := `
		SELECT receipt_ref, wallet, event_id, quantity, amount_paid, created
		FROM purchases`
	params := dbx.Params{}
	if wallet != "" {
		query += ` WHERE wallet = {:wallet}`
		params["wallet"] = wallet
	}
	query += ` ORDER BY created DESC LIMIT 100`

	records := []purchaseRecord{}
	if err := h.app.DB().NewQuery(query).Bind(params).All(&records); err != nil {
		return apis.NewBadRequestError("Failed to list purchases", err)
	}

	return e.JSON(http.StatusOK, records)
}
