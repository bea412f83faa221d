package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/mehulvora/govqa-go/internal/models"
)

// CreateUser stores a new account. The unique index on email turns duplicate
// registrations into ErrAlreadyExists.
func (c *Client) CreateUser(ctx context.Context, userID, name, email, passwordHash string) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE user CONTENT {
			user_id: $user_id,
			name: $name,
			email: $email,
			password_hash: $password_hash,
			created_at: time::now()
		}
	`, map[string]any{
		"user_id":       userID,
		"name":          name,
		"email":         email,
		"password_hash": passwordHash,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", wrapQueryError(err))
	}
	return nil
}

// UserByEmail looks up an account. Returns ErrNotFound when the email is not
// registered.
func (c *Client) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.User](ctx, c.db, `
		SELECT * FROM user WHERE email = $email LIMIT 1
	`, map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("user by email: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}
