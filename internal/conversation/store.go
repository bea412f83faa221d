// Package conversation manages per-user chat history on top of the database
// layer, including the lossy compaction of long conversations into summaries.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/mehulvora/govqa-go/internal/metrics"
	"github.com/mehulvora/govqa-go/internal/models"
)

// Backend is the persistence surface the store needs. *db.Client satisfies it.
type Backend interface {
	AppendMessage(ctx context.Context, userID, role, content string) error
	RecentMessages(ctx context.Context, userID string, limit int) ([]models.Message, error)
	AllMessages(ctx context.Context, userID string) ([]models.Message, error)
	OldestMessages(ctx context.Context, userID string, limit int) ([]models.Message, error)
	CountMessages(ctx context.Context, userID string) (int, error)
	HasMessages(ctx context.Context, userID string) (bool, error)
	DeleteMessages(ctx context.Context, userID string) error
	ReplaceWithSummary(ctx context.Context, userID, summary string, replaced []surrealmodels.RecordID, segmentStart time.Time) error
}

// Summarizer condenses a transcript into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Store serializes writes per user so concurrent requests for the same
// conversation cannot interleave their append/compact sequences. Different
// users never block each other.
type Store struct {
	backend    Backend
	summarizer Summarizer
	collector  *metrics.Collector
	log        *slog.Logger

	// Compaction triggers once the conversation exceeds threshold messages
	// and keeps the keep newest ones verbatim.
	threshold int
	keep      int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(backend Backend, summarizer Summarizer, collector *metrics.Collector, threshold, keep int, log *slog.Logger) *Store {
	if threshold <= 0 {
		threshold = 30
	}
	if keep <= 0 || keep >= threshold {
		keep = threshold * 2 / 3
	}
	return &Store{
		backend:    backend,
		summarizer: summarizer,
		collector:  collector,
		log:        log,
		threshold:  threshold,
		keep:       keep,
		locks:      make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex for one user, creating it on first use.
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// AppendTurn persists both halves of a completed turn verbatim.
func (s *Store) AppendTurn(ctx context.Context, userID, question, answer string) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	if err := s.backend.AppendMessage(ctx, userID, models.RoleUser, question); err != nil {
		return fmt.Errorf("append user message: %w", err)
	}
	if err := s.backend.AppendMessage(ctx, userID, models.RoleAssistant, answer); err != nil {
		return fmt.Errorf("append assistant message: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest messages in chronological order.
// Summary messages appear in their original position with RoleSystem.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	return s.backend.RecentMessages(ctx, userID, limit)
}

// History returns the full stored conversation in chronological order.
func (s *Store) History(ctx context.Context, userID string) ([]models.Message, error) {
	return s.backend.AllMessages(ctx, userID)
}

// Exists reports whether any history is stored for the user.
func (s *Store) Exists(ctx context.Context, userID string) (bool, error) {
	return s.backend.HasMessages(ctx, userID)
}

// Clear deletes the whole conversation. Clearing an unknown user is a no-op.
func (s *Store) Clear(ctx context.Context, userID string) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	return s.backend.DeleteMessages(ctx, userID)
}

// SummarizeIfNeeded compacts the oldest messages into a single summary once
// the conversation exceeds the threshold. The replacement is atomic, so a
// failed summarization leaves the history untouched. Summarization failures
// are logged and swallowed: a long history is better than a failed turn.
func (s *Store) SummarizeIfNeeded(ctx context.Context, userID string) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	count, err := s.backend.CountMessages(ctx, userID)
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	if count <= s.threshold {
		return nil
	}

	oldest, err := s.backend.OldestMessages(ctx, userID, count-s.keep)
	if err != nil {
		return fmt.Errorf("load oldest messages: %w", err)
	}
	if len(oldest) == 0 {
		return nil
	}

	summarizeStart := time.Now()
	summary, err := s.summarizer.Summarize(ctx, transcript(oldest))
	if err != nil {
		s.log.Warn("conversation summarization failed, keeping full history",
			"user_id", userID, "messages", len(oldest), "error", err)
		return nil
	}
	s.collector.RecordTiming(metrics.OpSummarize, time.Since(summarizeStart))

	ids := make([]surrealmodels.RecordID, len(oldest))
	for i, m := range oldest {
		ids[i] = m.ID
	}

	if err := s.backend.ReplaceWithSummary(ctx, userID, summary, ids, oldest[0].CreatedAt); err != nil {
		return fmt.Errorf("replace with summary: %w", err)
	}

	s.log.Info("compacted conversation",
		"user_id", userID, "replaced", len(oldest), "kept", s.keep)
	return nil
}

// transcript renders messages as "role: content" lines for the summarizer.
func transcript(msgs []models.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
