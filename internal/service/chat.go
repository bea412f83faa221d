// Package service orchestrates the question answering pipeline: retrieval,
// prompt assembly, completion, and conversation persistence.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mehulvora/govqa-go/internal/metrics"
	"github.com/mehulvora/govqa-go/internal/models"
	"github.com/mehulvora/govqa-go/internal/retrieval"
	"github.com/mehulvora/govqa-go/internal/years"
)

// Retriever fetches year-filtered chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, queryYears []string) ([]models.Chunk, error)
}

// Completer generates an answer from an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, msgs []models.PromptMessage) (string, error)
}

// History is the conversation surface the pipeline needs.
type History interface {
	AppendTurn(ctx context.Context, userID, question, answer string) error
	Recent(ctx context.Context, userID string, limit int) ([]models.Message, error)
	SummarizeIfNeeded(ctx context.Context, userID string) error
}

// ChatConfig tunes the pipeline.
type ChatConfig struct {
	MaxHistoryTurns int
	MaxPromptTokens int
	LLMTimeout      time.Duration
}

// TurnResult is one answered question.
type TurnResult struct {
	Answer  string
	Sources []string
}

// ChatService runs the full pipeline for one conversation turn.
type ChatService struct {
	retriever Retriever
	completer Completer
	history   History
	counter   *TokenCounter
	collector *metrics.Collector
	log       *slog.Logger
	cfg       ChatConfig
}

func NewChatService(retriever Retriever, completer Completer, history History, counter *TokenCounter, collector *metrics.Collector, cfg ChatConfig, log *slog.Logger) *ChatService {
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = 10
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 2 * time.Minute
	}
	return &ChatService{
		retriever: retriever,
		completer: completer,
		history:   history,
		counter:   counter,
		collector: collector,
		log:       log,
		cfg:       cfg,
	}
}

// Turn answers one user message within the user's conversation. The question
// and answer are both persisted verbatim, including the fixed not-found
// answer when retrieval comes back empty.
func (s *ChatService) Turn(ctx context.Context, userID, message string) (*TurnResult, error) {
	turnStart := time.Now()

	queryYears := years.Extract(message)
	if len(queryYears) > 0 {
		s.log.Debug("years in query", "user_id", userID, "years", queryYears)
	}

	retrieveStart := time.Now()
	chunks, err := s.retriever.Retrieve(ctx, message, queryYears)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	s.collector.RecordTiming(metrics.OpRetrieval, time.Since(retrieveStart))

	// Confidence gate: nothing indexed matched, so the model is never asked
	// to improvise an answer.
	if len(chunks) == 0 {
		s.log.Info("no relevant chunks, returning not-found answer", "user_id", userID)
		if err := s.persistTurn(ctx, userID, message, notFoundAnswer); err != nil {
			return nil, err
		}
		return &TurnResult{Answer: notFoundAnswer}, nil
	}

	contextBlock, citations := retrieval.AssembleContext(chunks)

	history, err := s.history.Recent(ctx, userID, s.cfg.MaxHistoryTurns*2)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	prompt := s.assemblePrompt(contextBlock, history, augmentQuery(message, queryYears))

	llmCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	completeStart := time.Now()
	answer, err := s.completer.Complete(llmCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	s.collector.RecordCompletionUsage(metrics.OpCompletion, time.Since(completeStart),
		int64(s.counter.countMessages(prompt)), int64(s.counter.Count(answer)))

	if err := s.persistTurn(ctx, userID, message, answer); err != nil {
		return nil, err
	}

	if err := s.history.SummarizeIfNeeded(ctx, userID); err != nil {
		// The turn already succeeded; compaction can retry next turn.
		s.log.Warn("history compaction failed", "user_id", userID, "error", err)
	}

	s.collector.RecordTiming(metrics.OpTurn, time.Since(turnStart))
	s.log.Info("answered turn",
		"user_id", userID,
		"chunks", len(chunks),
		"history_messages", len(history),
		"duration_ms", time.Since(turnStart).Milliseconds())

	return &TurnResult{Answer: answer, Sources: citations}, nil
}

// assemblePrompt builds the message list and trims it to the token budget.
func (s *ChatService) assemblePrompt(contextBlock string, history []models.Message, userMessage string) []models.PromptMessage {
	// Compaction summaries keep their system role and travel inside the
	// history window like any other message.
	historyMsgs := make([]models.PromptMessage, len(history))
	for i, m := range history {
		historyMsgs[i] = models.PromptMessage{Role: m.Role, Content: m.Content}
	}

	fixed := []models.PromptMessage{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: userMessage},
	}
	contextBlock, historyMsgs = fitBudget(s.counter, contextBlock, historyMsgs, fixed, s.cfg.MaxPromptTokens)

	prompt := make([]models.PromptMessage, 0, len(historyMsgs)+3)
	prompt = append(prompt,
		models.PromptMessage{Role: models.RoleSystem, Content: systemPrompt},
		models.PromptMessage{Role: models.RoleSystem, Content: contextMessage(contextBlock)},
	)
	prompt = append(prompt, historyMsgs...)
	prompt = append(prompt, models.PromptMessage{Role: models.RoleUser, Content: userMessage})
	return prompt
}

func (s *ChatService) persistTurn(ctx context.Context, userID, question, answer string) error {
	if err := s.history.AppendTurn(ctx, userID, question, answer); err != nil {
		return fmt.Errorf("persist turn: %w", err)
	}
	return nil
}
