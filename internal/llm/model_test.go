package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"

	"github.com/mehulvora/govqa-go/internal/config"
	"github.com/mehulvora/govqa-go/internal/models"
)

func TestNewModelRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"unknown provider", config.Config{LLMProvider: "palm", LLMModel: "x"}},
		{"openai without key", config.Config{LLMProvider: config.ProviderOpenAI, LLMModel: "gpt-4o"}},
		{"anthropic without key", config.Config{LLMProvider: config.ProviderAnthropic, LLMModel: "claude"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(ctx, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewEmbedderRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"unknown provider", config.Config{EmbedProvider: "palm"}},
		{"openai without key", config.Config{EmbedProvider: config.ProviderOpenAI, EmbedModel: "ada"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmbedder(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestChatMessageType(t *testing.T) {
	assert.Equal(t, llms.ChatMessageTypeHuman, chatMessageType(models.RoleUser))
	assert.Equal(t, llms.ChatMessageTypeAI, chatMessageType(models.RoleAssistant))
	assert.Equal(t, llms.ChatMessageTypeSystem, chatMessageType(models.RoleSystem))
	// Unknown roles default to human input rather than being dropped
	assert.Equal(t, llms.ChatMessageTypeHuman, chatMessageType("tool"))
}
