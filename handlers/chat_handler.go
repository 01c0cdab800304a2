package handlers

import (
	"net/http"
	"ticket-ledger/models"
	"ticket-ledger/services"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ChatHandler struct {
	app       *pocketbase.PocketBase
	assistant *services.AssistantService
}

func NewChatHandler(app *pocketbase.PocketBase, assistant *services.AssistantService) *ChatHandler {
	return &ChatHandler{
		app:       app,
		assistant: assistant,
	}
}

// Chat forwards the conversation to the assistant collaborator.
func (h *ChatHandler) Chat(e *core.RequestEvent) error {
	var req struct {
		SessionID string               `json:"session_id"`
		Messages  []models.ChatMessage `json:"messages"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if len(req.Messages) == 0 {
		return apis.NewBadRequestError("Messages are required", nil)
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := h.assistant.GenerateResponse(e.Request.Context(), req.Messages)
	if err != nil {
		return apis.NewBadRequestError("Failed to generate response", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"session_id": req.SessionID,
		"reply":      reply,
	})
}
