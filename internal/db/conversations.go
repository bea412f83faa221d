package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/mehulvora/govqa-go/internal/models"
)

// AppendMessage durably appends one message to a conversation. Every call
// appends; there is no idempotency key. The conversation comes into existence
// with its first message. The seq stamp orders messages that land on the same
// created_at timestamp.
func (c *Client) AppendMessage(ctx context.Context, userID, role, content string) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE message CONTENT {
			user_id: $user_id,
			role: $role,
			content: $content,
			created_at: time::now(),
			seq: $seq
		}
	`, map[string]any{
		"user_id": userID,
		"role":    role,
		"content": content,
		"seq":     c.seq.Add(1),
	})
	if err != nil {
		return fmt.Errorf("append message: %w", wrapQueryError(err))
	}
	return nil
}

// RecentMessages returns the newest `limit` messages for a conversation,
// oldest-first, ready to prepend to a completion request.
func (c *Client) RecentMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Message](ctx, c.db, `
		SELECT * FROM message
		WHERE user_id = $user_id
		ORDER BY created_at DESC, seq DESC
		LIMIT $limit
	`, map[string]any{
		"user_id": userID,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Message{}, nil
	}

	newest := (*results)[0].Result
	// Reverse into chronological order
	msgs := make([]models.Message, len(newest))
	for i, m := range newest {
		msgs[len(newest)-1-i] = m
	}
	return msgs, nil
}

// AllMessages returns the full conversation, oldest-first.
func (c *Client) AllMessages(ctx context.Context, userID string) ([]models.Message, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Message](ctx, c.db, `
		SELECT * FROM message
		WHERE user_id = $user_id
		ORDER BY created_at ASC, seq ASC
	`, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("all messages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Message{}, nil
	}
	return (*results)[0].Result, nil
}

// OldestMessages returns the oldest `limit` messages, oldest-first. Used to
// pick the segment that compaction condenses.
func (c *Client) OldestMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]models.Message](ctx, c.db, `
		SELECT * FROM message
		WHERE user_id = $user_id
		ORDER BY created_at ASC, seq ASC
		LIMIT $limit
	`, map[string]any{
		"user_id": userID,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("oldest messages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Message{}, nil
	}
	return (*results)[0].Result, nil
}

// CountMessages returns how many messages a conversation holds.
func (c *Client) CountMessages(ctx context.Context, userID string) (int, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, `
		SELECT count() AS count FROM message WHERE user_id = $user_id GROUP ALL
	`, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}

// HasMessages reports whether any history is stored for the key.
func (c *Client) HasMessages(ctx context.Context, userID string) (bool, error) {
	n, err := c.CountMessages(ctx, userID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteMessages clears a conversation's content. The key itself has no
// standalone existence, so this is a full reset for that user.
func (c *Client) DeleteMessages(ctx context.Context, userID string) error {
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE message WHERE user_id = $user_id
	`, map[string]any{"user_id": userID})
	if err != nil {
		return fmt.Errorf("delete messages: %w", wrapQueryError(err))
	}
	return nil
}

// ReplaceWithSummary atomically deletes the given messages and inserts one
// system message carrying their condensed summary, timestamped at the start
// of the replaced segment so chronological ordering is preserved. Running in
// a single transaction keeps compaction atomic with respect to concurrent
// appends, which only ever add newer records.
func (c *Client) ReplaceWithSummary(ctx context.Context, userID, summary string, replaced []surrealmodels.RecordID, segmentStart time.Time) error {
	if len(replaced) == 0 {
		return nil
	}
	defer c.observe(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		BEGIN TRANSACTION;
		DELETE message WHERE id IN $ids;
		CREATE message CONTENT {
			user_id: $user_id,
			role: "system",
			content: $summary,
			created_at: $created_at,
			seq: $seq
		};
		COMMIT TRANSACTION;
	`, map[string]any{
		"ids":        replaced,
		"user_id":    userID,
		"summary":    summary,
		"created_at": segmentStart,
		"seq":        c.seq.Add(1),
	})
	if err != nil {
		return fmt.Errorf("replace with summary: %w", wrapQueryError(err))
	}
	return nil
}
