package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mehulvora/govqa-go/internal/auth"
	"github.com/mehulvora/govqa-go/internal/db"
)

// ChatRequest is one question within a conversation. The frontend generates
// and owns the user ID; the same ID continues the conversation, a new ID
// starts a fresh one.
type ChatRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ChatResponse carries the HTML answer. The frontend renders it directly.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	IsHTML  bool     `json:"is_html"`
}

// ChatMessage is one stored message in a history response.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

type HistoryResponse struct {
	UserID   string        `json:"user_id"`
	Messages []ChatMessage `json:"messages"`
}

type UserExistsResponse struct {
	UserID     string `json:"user_id"`
	HasHistory bool   `json:"has_history"`
	Message    string `json:"message"`
}

type ClearRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

type IngestRequest struct {
	Path string `json:"path" binding:"required"`
}

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Metrics.Snapshot())
}

func (s *Server) sendMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	result, err := s.deps.Chat.Turn(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		s.deps.Log.Error("chat turn failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to answer message"))
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	c.JSON(http.StatusOK, ChatResponse{Answer: result.Answer, Sources: sources, IsHTML: true})
}

func (s *Server) getHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, errorBody("user_id query parameter is required"))
		return
	}

	messages, err := s.deps.Conversations.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to load history"))
		return
	}

	out := make([]ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = ChatMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.CreatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, HistoryResponse{UserID: userID, Messages: out})
}

func (s *Server) checkUser(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, errorBody("user_id query parameter is required"))
		return
	}

	exists, err := s.deps.Conversations.Exists(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to check user"))
		return
	}

	msg := "New user — fresh conversation starts."
	if exists {
		msg = "Returning user — history loaded."
	}
	c.JSON(http.StatusOK, UserExistsResponse{UserID: userID, HasHistory: exists, Message: msg})
}

func (s *Server) deleteHistory(c *gin.Context) {
	var req ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := s.deps.Conversations.Clear(c.Request.Context(), req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to clear history"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to register"))
		return
	}

	userID := auth.NewUserID()
	if err := s.deps.Users.CreateUser(c.Request.Context(), userID, req.Name, req.Email, hash); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, errorBody("email already registered"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("failed to register"))
		return
	}

	token, err := s.deps.Tokens.Issue(userID, req.Name, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to register"))
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{UserID: userID, Name: req.Name, Token: token})
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	user, err := s.deps.Users.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, errorBody("invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("failed to log in"))
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, errorBody("invalid email or password"))
		return
	}

	token, err := s.deps.Tokens.Issue(user.UserID, user.Name, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to log in"))
		return
	}
	c.JSON(http.StatusOK, AuthResponse{UserID: user.UserID, Name: user.Name, Token: token})
}

func (s *Server) listDocs(c *gin.Context) {
	docs, err := s.deps.Docs.ListDocs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("failed to list documents"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"docs": docs})
}

func (s *Server) startIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	handle := s.deps.Jobs.Start("ingest", 0)
	go func() {
		// The request context dies with the response; ingestion outlives it.
		if _, err := s.deps.Ingestor.IngestFile(context.Background(), req.Path, handle); err != nil {
			s.deps.Log.Error("ingestion failed", "path", req.Path, "error", err)
			handle.Fail(err)
			return
		}
		handle.Complete()
	}()

	c.JSON(http.StatusAccepted, gin.H{"job_id": handle.ID()})
}

func (s *Server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.deps.Jobs.List()})
}

func (s *Server) getJob(c *gin.Context) {
	job, ok := s.deps.Jobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("job not found"))
		return
	}
	c.JSON(http.StatusOK, job)
}
