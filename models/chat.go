package models

// ChatMessage is one role-tagged turn of the support assistant
// conversation. Role is "user" or "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
