package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// User is a registered account in the user registry.
// Registration is optional: chat identity is the self-asserted user ID, and
// the registry only backs the login flow of the frontend.
type User struct {
	ID           surrealmodels.RecordID `json:"id"`
	UserID       string                 `json:"user_id"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	PasswordHash string                 `json:"password_hash"`
	CreatedAt    time.Time              `json:"created_at"`
}
