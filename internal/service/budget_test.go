package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehulvora/govqa-go/internal/models"
)

func TestTokenCounterFallback(t *testing.T) {
	// Unknown model name: the rune heuristic kicks in.
	counter := NewTokenCounter("no-such-model")

	assert.Equal(t, 1, counter.Count(""))
	short := counter.Count("four")
	long := counter.Count(strings.Repeat("four ", 100))
	assert.Greater(t, long, short)
}

func TestCountMessagesIncludesFraming(t *testing.T) {
	counter := NewTokenCounter("no-such-model")
	msgs := []models.PromptMessage{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}
	assert.Greater(t, counter.countMessages(msgs), counter.Count("hi")+counter.Count("hello"))
}

func TestFitBudgetNoTrimWhenUnderBudget(t *testing.T) {
	counter := NewTokenCounter("no-such-model")
	history := []models.PromptMessage{{Role: models.RoleUser, Content: "earlier"}}
	fixed := []models.PromptMessage{{Role: models.RoleSystem, Content: "system"}}

	ctxBlock, gotHistory := fitBudget(counter, "small context", history, fixed, 6000)

	assert.Equal(t, "small context", ctxBlock)
	assert.Len(t, gotHistory, 1)
}

func TestFitBudgetDropsOldestHistoryFirst(t *testing.T) {
	counter := NewTokenCounter("no-such-model")
	big := strings.Repeat("history filler ", 200)
	history := []models.PromptMessage{
		{Role: models.RoleUser, Content: big},
		{Role: models.RoleAssistant, Content: big},
		{Role: models.RoleUser, Content: "recent"},
	}
	fixed := []models.PromptMessage{{Role: models.RoleSystem, Content: "sys"}}

	ctxBlock, gotHistory := fitBudget(counter, "ctx", history, fixed, 300)

	require.NotEmpty(t, gotHistory)
	assert.Equal(t, "recent", gotHistory[len(gotHistory)-1].Content)
	assert.Less(t, len(gotHistory), 3)
	assert.NotEmpty(t, ctxBlock)
}

func TestFitBudgetTrimsContextAfterHistory(t *testing.T) {
	counter := NewTokenCounter("no-such-model")
	bigContext := strings.Repeat("context filler ", 500)
	fixed := []models.PromptMessage{{Role: models.RoleSystem, Content: "sys"}}

	ctxBlock, gotHistory := fitBudget(counter, bigContext, nil, fixed, 200)

	assert.Empty(t, gotHistory)
	assert.Less(t, len(ctxBlock), len(bigContext))
}

func TestFitBudgetDisabled(t *testing.T) {
	counter := NewTokenCounter("no-such-model")
	big := strings.Repeat("x ", 5000)
	history := []models.PromptMessage{{Role: models.RoleUser, Content: big}}

	ctxBlock, gotHistory := fitBudget(counter, big, history, nil, 0)

	assert.Equal(t, big, ctxBlock)
	assert.Len(t, gotHistory, 1)
}

func TestTrimTail(t *testing.T) {
	assert.Equal(t, "abcde", trimTail("abcdefghij", 1, 2))
	assert.Equal(t, "", trimTail("ab", 0, 10))

	// Rune boundaries stay intact for non-ASCII text.
	trimmed := trimTail("ગુજરાત સરકાર", 1, 2)
	assert.Equal(t, trimmed, strings.ToValidUTF8(trimmed, ""))
}
