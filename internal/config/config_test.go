package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8000/rpc", cfg.SurrealDBURL)
	assert.Equal(t, "govdocs", cfg.SurrealDBNamespace)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, 15, cfg.YearFetchK)
	assert.Equal(t, 10, cfg.MaxHistoryTurns)
	assert.Equal(t, 30, cfg.SummarizeThreshold)
	assert.Equal(t, 20, cfg.SummaryKeep)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VECTOR_SEARCH_TOP_K", "12")
	t.Setenv("MAX_HISTORY_TURNS", "4")
	t.Setenv("GOVQA_LOG_LEVEL", "debug")
	t.Setenv("GOVQA_LLM_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.TopK)
	assert.Equal(t, 4, cfg.MaxHistoryTurns)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "30s", cfg.LLMTimeout.String())
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("VECTOR_SEARCH_TOP_K", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.TopK)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "govqa.yaml")
	content := []byte("llm_provider: ollama\nllm_model: llama3\ntop_k: 20\nlog_level: error\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Setenv("GOVQA_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, "llama3", cfg.LLMModel)
	assert.Equal(t, 20, cfg.TopK)
	assert.Equal(t, slog.LevelError, cfg.LogLevel)
	// Untouched by the overlay
	assert.Equal(t, 10, cfg.MaxHistoryTurns)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("GOVQA_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Config{
			LLMProvider:    ProviderOllama,
			LLMModel:       "llama3",
			EmbedProvider:  ProviderOllama,
			EmbedModel:     "all-minilm:l6-v2",
			EmbedDimension: 384,
		}
		return cfg
	}

	t.Run("ollama needs no keys", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("openai requires api key", func(t *testing.T) {
		cfg := base()
		cfg.LLMProvider = ProviderOpenAI
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("all problems reported at once", func(t *testing.T) {
		cfg := base()
		cfg.LLMProvider = ProviderAnthropic
		cfg.LLMModel = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
		assert.Contains(t, err.Error(), "CHAT_DEPLOYMENT")
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		cfg := base()
		cfg.LLMProvider = "palm"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad dimension rejected", func(t *testing.T) {
		cfg := base()
		cfg.EmbedDimension = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("hello", "key", "value")

	assert.Contains(t, stderr.String(), "hello")
	assert.Contains(t, file.String(), `"msg":"hello"`)
}
