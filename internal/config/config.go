// Package config loads service configuration from the environment, with an
// optional YAML overlay file for deployments that prefer files over env vars.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifiers for LLM and embedding backends.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Completion model
	LLMProvider     string
	LLMModel        string
	LLMTimeout      time.Duration
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Embeddings
	EmbedProvider  string
	EmbedModel     string
	EmbedDimension int

	// Retrieval and conversation
	TopK               int
	YearFetchK         int
	MaxHistoryTurns    int
	SummarizeThreshold int
	SummaryKeep        int
	MaxPromptTokens    int
	ChunkOverlap       int
	ChunkMaxSize       int

	// HTTP server and auth
	ListenAddr string
	JWTSecret  string
	JWTExpiry  time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables. Variable names follow
// the deployed system's .env convention (VECTOR_SEARCH_TOP_K, JWT_SECRET_KEY,
// ...); govqa-specific settings use a GOVQA_ prefix. If GOVQA_CONFIG points
// at a YAML file, its values override the environment.
func Load() (Config, error) {
	cfg := Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "govdocs"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "corpus"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     getEnv("GOVQA_LLM_PROVIDER", ProviderOpenAI),
		LLMModel:        getEnv("CHAT_DEPLOYMENT", "gpt-4o"),
		LLMTimeout:      getDuration("GOVQA_LLM_TIMEOUT", 2*time.Minute),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		EmbedProvider:  getEnv("GOVQA_EMBED_PROVIDER", ProviderOpenAI),
		EmbedModel:     getEnv("EMBED_DEPLOYMENT", "text-embedding-ada-002"),
		EmbedDimension: getInt("GOVQA_EMBED_DIMENSION", 1536),

		TopK:               getInt("VECTOR_SEARCH_TOP_K", 8),
		YearFetchK:         getInt("GOVQA_YEAR_FETCH_K", 15),
		MaxHistoryTurns:    getInt("MAX_HISTORY_TURNS", 10),
		SummarizeThreshold: getInt("GOVQA_SUMMARIZE_THRESHOLD", 30),
		SummaryKeep:        getInt("GOVQA_SUMMARY_KEEP", 20),
		MaxPromptTokens:    getInt("GOVQA_MAX_PROMPT_TOKENS", 6000),
		ChunkOverlap:       getInt("GOVQA_CHUNK_OVERLAP", 300),
		ChunkMaxSize:       getInt("GOVQA_CHUNK_MAX_SIZE", 1800),

		ListenAddr: getEnv("GOVQA_LISTEN_ADDR", ":8000"),
		JWTSecret:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
		JWTExpiry:  time.Duration(getInt("JWT_EXPIRE_MINUTES", 1440)) * time.Minute,

		LogFile:  getEnv("GOVQA_LOG_FILE", "/tmp/govqa.log"),
		LogLevel: parseLogLevel(getEnv("GOVQA_LOG_LEVEL", "INFO")),
	}

	if path := os.Getenv("GOVQA_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Validate checks that everything the configured providers need is present.
// All problems are reported at once so a fresh deployment can fix its .env in
// one pass.
func (c Config) Validate() error {
	var missing []string

	if c.LLMProvider == ProviderOpenAI && c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.LLMProvider == ProviderAnthropic && c.AnthropicAPIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.EmbedProvider == ProviderOpenAI && c.OpenAIAPIKey == "" && c.LLMProvider != ProviderOpenAI {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.LLMModel == "" {
		missing = append(missing, "CHAT_DEPLOYMENT")
	}
	if c.EmbedModel == "" {
		missing = append(missing, "EMBED_DEPLOYMENT")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderBedrock:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbedDimension)
	}

	return nil
}

// fileConfig mirrors Config for the YAML overlay. Zero values leave the
// corresponding setting untouched.
type fileConfig struct {
	SurrealDBURL string `yaml:"surrealdb_url"`
	LLMProvider  string `yaml:"llm_provider"`
	LLMModel     string `yaml:"llm_model"`

	EmbedProvider  string `yaml:"embed_provider"`
	EmbedModel     string `yaml:"embed_model"`
	EmbedDimension int    `yaml:"embed_dimension"`

	TopK               int `yaml:"top_k"`
	MaxHistoryTurns    int `yaml:"max_history_turns"`
	SummarizeThreshold int `yaml:"summarize_threshold"`
	SummaryKeep        int `yaml:"summary_keep"`
	MaxPromptTokens    int `yaml:"max_prompt_tokens"`

	ListenAddr string `yaml:"listen_addr"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	setString(&c.SurrealDBURL, fc.SurrealDBURL)
	setString(&c.LLMProvider, fc.LLMProvider)
	setString(&c.LLMModel, fc.LLMModel)
	setString(&c.EmbedProvider, fc.EmbedProvider)
	setString(&c.EmbedModel, fc.EmbedModel)
	setInt(&c.EmbedDimension, fc.EmbedDimension)
	setInt(&c.TopK, fc.TopK)
	setInt(&c.MaxHistoryTurns, fc.MaxHistoryTurns)
	setInt(&c.SummarizeThreshold, fc.SummarizeThreshold)
	setInt(&c.SummaryKeep, fc.SummaryKeep)
	setInt(&c.MaxPromptTokens, fc.MaxPromptTokens)
	setString(&c.ListenAddr, fc.ListenAddr)
	setString(&c.LogFile, fc.LogFile)
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
