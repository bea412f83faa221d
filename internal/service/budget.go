package service

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mehulvora/govqa-go/internal/models"
)

// TokenCounter counts prompt tokens with the model's BPE encoding, falling
// back to a rune heuristic when the encoding is unavailable (unknown model
// name or no cached BPE data).
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

func NewTokenCounter(model string) *TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the token count of text.
func (c *TokenCounter) Count(text string) int {
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	// Rough average of 4 chars per token holds for mixed English text;
	// close enough for a trimming budget.
	return utf8.RuneCountInString(text)/4 + 1
}

// countMessages sums token counts across messages with a small per-message
// framing allowance.
func (c *TokenCounter) countMessages(msgs []models.PromptMessage) int {
	total := 0
	for _, m := range msgs {
		total += c.Count(m.Content) + 4
	}
	return total
}

// fitBudget trims the prompt to maxTokens. History is dropped oldest-first;
// if that is not enough the context block is cut from the end. The system
// prompt and the user question are never touched.
func fitBudget(counter *TokenCounter, contextBlock string, history []models.PromptMessage, fixed []models.PromptMessage, maxTokens int) (string, []models.PromptMessage) {
	if maxTokens <= 0 {
		return contextBlock, history
	}

	contextTokens := counter.Count(contextMessage(contextBlock)) + 4
	fixedTokens := counter.countMessages(fixed)

	for len(history) > 0 && fixedTokens+contextTokens+counter.countMessages(history) > maxTokens {
		history = history[1:]
	}

	allowed := maxTokens - fixedTokens - counter.countMessages(history)
	for counter.Count(contextMessage(contextBlock))+4 > allowed && contextBlock != "" {
		contextBlock = trimTail(contextBlock, 9, 10)
	}

	return contextBlock, history
}

// trimTail cuts text to num/den of its runes at a rune boundary.
func trimTail(text string, num, den int) string {
	runes := []rune(text)
	keep := len(runes) * num / den
	if keep >= len(runes) {
		keep = len(runes) - 1
	}
	if keep <= 0 {
		return ""
	}
	return string(runes[:keep])
}
