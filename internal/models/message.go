package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Message roles. Summaries produced by compaction are stored with RoleSystem.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn half within a conversation.
// Conversations are keyed by the caller-supplied user ID; a conversation
// exists implicitly once its first message is appended.
type Message struct {
	ID        surrealmodels.RecordID `json:"id"`
	UserID    string                 `json:"user_id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	CreatedAt time.Time              `json:"created_at"`

	// Seq breaks ordering ties between messages created within the same
	// timestamp, such as the two halves of a turn.
	Seq int64 `json:"seq"`
}
