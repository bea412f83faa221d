// Package llm provides completion and embedding services using langchaingo.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mehulvora/govqa-go/internal/config"
	"github.com/mehulvora/govqa-go/internal/models"
)

// Fixed decoding parameters. Answers must be reproducible given the same
// context, so sampling is fully constrained.
const (
	completionTemperature = 0.0
	completionTopP        = 0.9
	completionMaxTokens   = 1500
)

// summaryMaxTokens caps compaction summaries well below answer length.
const summaryMaxTokens = 400

// Model wraps a langchaingo LLM as the completion service.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates a completion model based on configuration.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx)
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(client),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// Complete sends an ordered message list to the completion service and
// returns the generated text. Decoding is deterministic: temperature 0,
// top_p 0.9, output capped at 1500 tokens.
func (m *Model) Complete(ctx context.Context, msgs []models.PromptMessage) (string, error) {
	content := make([]llms.MessageContent, len(msgs))
	for i, msg := range msgs {
		content[i] = llms.TextParts(chatMessageType(msg.Role), msg.Content)
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, content,
		llms.WithTemperature(completionTemperature),
		llms.WithTopP(completionTopP),
		llms.WithMaxTokens(completionMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("complete: no response choices")
	}

	slog.Debug("completion finished",
		"model", m.modelName,
		"messages", len(msgs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return response.Choices[0].Content, nil
}

// Summarize condenses a conversation transcript for history compaction.
func (m *Model) Summarize(ctx context.Context, transcript string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem,
			"Condense the following conversation into a short factual summary. "+
				"Keep every document name, page number, year, and figure that was mentioned. "+
				"Write plain prose, no formatting."),
		llms.TextParts(llms.ChatMessageTypeHuman, transcript),
	}

	response, err := m.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(completionTemperature),
		llms.WithMaxTokens(summaryMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("summarize: no response choices")
	}
	return response.Choices[0].Content, nil
}

// Model returns the completion model name.
func (m *Model) Model() string {
	return m.modelName
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
