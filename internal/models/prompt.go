package models

// PromptMessage is one entry of a completion-service request, decoupled from
// any provider SDK's message type.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
