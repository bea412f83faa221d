// Package server provides the HTTP API with lifecycle management.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mehulvora/govqa-go/internal/auth"
	"github.com/mehulvora/govqa-go/internal/db"
	"github.com/mehulvora/govqa-go/internal/jobs"
	"github.com/mehulvora/govqa-go/internal/metrics"
	"github.com/mehulvora/govqa-go/internal/models"
	"github.com/mehulvora/govqa-go/internal/service"
)

// shutdownGrace is how long in-flight requests get to finish on shutdown.
const shutdownGrace = 10 * time.Second

// Chat answers one conversation turn.
type Chat interface {
	Turn(ctx context.Context, userID, message string) (*service.TurnResult, error)
}

// Conversations is the history surface the handlers need.
type Conversations interface {
	History(ctx context.Context, userID string) ([]models.Message, error)
	Exists(ctx context.Context, userID string) (bool, error)
	Clear(ctx context.Context, userID string) error
}

// Users is the registry surface for register and login.
type Users interface {
	CreateUser(ctx context.Context, userID, name, email, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Ingestor runs a dump ingestion.
type Ingestor interface {
	IngestFile(ctx context.Context, path string, handle *jobs.Handle) (*service.IngestResult, error)
}

// DocLister enumerates indexed documents.
type DocLister interface {
	ListDocs(ctx context.Context) ([]db.DocCount, error)
}

// Deps collects everything the API serves.
type Deps struct {
	Chat          Chat
	Conversations Conversations
	Users         Users
	Ingestor      Ingestor
	Docs          DocLister
	Jobs          *jobs.Registry
	Tokens        *auth.TokenManager
	Metrics       *metrics.Collector
	Log           *slog.Logger
}

// Server wraps the HTTP server with its dependencies.
type Server struct {
	deps Deps
	http *http.Server
}

// New builds the server on addr with all routes registered.
func New(addr string, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), CORSMiddleware(), LoggingMiddleware(deps.Log))

	s := &Server{
		deps: deps,
		http: &http.Server{
			Addr:    addr,
			Handler: engine,
		},
	}
	s.registerRoutes(engine)
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/health", s.health)
	engine.GET("/stats", s.stats)

	chat := engine.Group("/chat")
	{
		chat.POST("", s.sendMessage)
		chat.GET("/history", s.getHistory)
		chat.GET("/exists", s.checkUser)
		chat.DELETE("/history", s.deleteHistory)
	}

	authGroup := engine.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
	}

	engine.GET("/docs", s.listDocs)
	engine.POST("/ingest", s.startIngest)

	jobsGroup := engine.Group("/jobs")
	{
		jobsGroup.GET("", s.listJobs)
		jobsGroup.GET("/:id", s.getJob)
		jobsGroup.GET("/:id/ws", s.watchJob)
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
