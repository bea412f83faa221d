// Package main provides the govqa HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mehulvora/govqa-go/internal/auth"
	"github.com/mehulvora/govqa-go/internal/config"
	"github.com/mehulvora/govqa-go/internal/conversation"
	"github.com/mehulvora/govqa-go/internal/db"
	"github.com/mehulvora/govqa-go/internal/jobs"
	"github.com/mehulvora/govqa-go/internal/llm"
	"github.com/mehulvora/govqa-go/internal/metrics"
	"github.com/mehulvora/govqa-go/internal/parser"
	"github.com/mehulvora/govqa-go/internal/retrieval"
	"github.com/mehulvora/govqa-go/internal/server"
	"github.com/mehulvora/govqa-go/internal/service"
)

const startupTimeout = 30 * time.Second

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	logger.Info("starting govqa-server", "addr", cfg.ListenAddr,
		"llm_provider", cfg.LLMProvider, "embed_provider", cfg.EmbedProvider)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:            cfg.SurrealDBURL,
		Namespace:      cfg.SurrealDBNamespace,
		Database:       cfg.SurrealDBDatabase,
		Username:       cfg.SurrealDBUser,
		Password:       cfg.SurrealDBPass,
		AuthLevel:      cfg.SurrealDBAuthLevel,
		EmbedDimension: cfg.EmbedDimension,
	}, logger)
	if err != nil {
		cancel()
		logger.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("close database", "error", err)
		}
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		logger.Error("initialize schema", "error", err)
		os.Exit(1)
	}
	if *wipeDB || os.Getenv("GOVQA_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			cancel()
			logger.Error("wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped on startup")
	}

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		cancel()
		logger.Error("initialize completion model", "error", err)
		os.Exit(1)
	}
	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		cancel()
		logger.Error("initialize embedder", "error", err)
		os.Exit(1)
	}
	cancel()

	collector := metrics.NewCollector()
	dbClient.SetCollector(collector)
	retriever := retrieval.NewRetriever(embedder, dbClient, cfg.TopK, cfg.YearFetchK)
	store := conversation.NewStore(dbClient, model, collector, cfg.SummarizeThreshold, cfg.SummaryKeep, logger)

	chat := service.NewChatService(retriever, model, store,
		service.NewTokenCounter(cfg.LLMModel), collector,
		service.ChatConfig{
			MaxHistoryTurns: cfg.MaxHistoryTurns,
			MaxPromptTokens: cfg.MaxPromptTokens,
			LLMTimeout:      cfg.LLMTimeout,
		}, logger)

	chunkCfg := parser.DefaultChunkConfig()
	chunkCfg.Overlap = cfg.ChunkOverlap
	chunkCfg.MaxSize = cfg.ChunkMaxSize
	chunkCfg.Threshold = cfg.ChunkMaxSize
	ingestor := service.NewIngestor(embedder, dbClient, collector,
		chunkCfg, parser.DefaultOptions(), logger)

	srv := server.New(cfg.ListenAddr, server.Deps{
		Chat:          chat,
		Conversations: store,
		Users:         dbClient,
		Ingestor:      ingestor,
		Docs:          dbClient,
		Jobs:          jobs.NewRegistry(),
		Tokens:        auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry),
		Metrics:       collector,
		Log:           logger,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
