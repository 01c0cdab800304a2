package handlers

import (
	"net/http"
	"ticket-ledger/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// PinningHandler proxies the content-pinning collaborator so the
// front-end never holds pinning credentials.
type PinningHandler struct {
	app     *pocketbase.PocketBase
	pinning *services.PinningService
}

func NewPinningHandler(app *pocketbase.PocketBase, pinning *services.PinningService) *PinningHandler {
	return &PinningHandler{
		app:     app,
		pinning: pinning,
	}
}

func (h *PinningHandler) Upload(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name      string            `json:"name"`
		Category  string            `json:"category"`
		Content   map[string]any    `json:"content"`
		Keyvalues map[string]string `json:"keyvalues"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if len(req.Content) == 0 {
		return apis.NewBadRequestError("Content is required", nil)
	}

	result, err := h.pinning.UploadJSON(e.Request.Context(), req.Name, req.Category, req.Content, req.Keyvalues)
	if err != nil {
		return apis.NewBadRequestError("Failed to pin content", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"cid":      result.CID,
		"file_id":  result.FileID,
		"group_id": result.GroupID,
	})
}

func (h *PinningHandler) Resolve(e *core.RequestEvent) error {
	cid := e.Request.PathValue("cid")

	return e.JSON(http.StatusOK, map[string]any{
		"cid": cid,
		"url": h.pinning.GatewayURL(cid),
	})
}

func (h *PinningHandler) Search(e *core.RequestEvent) error {
	category := e.Request.URL.Query().Get("category")
	if category == "" {
		return apis.NewBadRequestError("Category is required", nil)
	}

	pins, err := h.pinning.Search(e.Request.Context(), category)
	if err != nil {
		return apis.NewBadRequestError("Search failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"category": category,
		"pins":     pins,
	})
}
