package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehulvora/govqa-go/internal/auth"
	"github.com/mehulvora/govqa-go/internal/db"
	"github.com/mehulvora/govqa-go/internal/jobs"
	"github.com/mehulvora/govqa-go/internal/metrics"
	"github.com/mehulvora/govqa-go/internal/models"
	"github.com/mehulvora/govqa-go/internal/service"
)

type fakeChat struct {
	result *service.TurnResult
	err    error
}

func (f *fakeChat) Turn(_ context.Context, _, _ string) (*service.TurnResult, error) {
	return f.result, f.err
}

type fakeConversations struct {
	messages []models.Message
	exists   bool
	cleared  []string
	err      error
}

func (f *fakeConversations) History(_ context.Context, _ string) ([]models.Message, error) {
	return f.messages, f.err
}

func (f *fakeConversations) Exists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeConversations) Clear(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return f.err
}

type fakeUsers struct {
	users     map[string]*models.User
	createErr error
}

func (f *fakeUsers) CreateUser(_ context.Context, userID, name, email, passwordHash string) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.users == nil {
		f.users = map[string]*models.User{}
	}
	f.users[email] = &models.User{UserID: userID, Name: name, Email: email, PasswordHash: passwordHash}
	return nil
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

type fakeIngestor struct {
	result *service.IngestResult
	err    error
	done   chan struct{}
}

func (f *fakeIngestor) IngestFile(_ context.Context, _ string, _ *jobs.Handle) (*service.IngestResult, error) {
	if f.done != nil {
		defer close(f.done)
	}
	return f.result, f.err
}

type fakeDocs struct {
	docs []db.DocCount
}

func (f *fakeDocs) ListDocs(_ context.Context) ([]db.DocCount, error) {
	return f.docs, nil
}

func newTestServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Jobs == nil {
		deps.Jobs = jobs.NewRegistry()
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokenManager("test-secret", time.Hour)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCollector()
	}
	return New(":0", deps)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(Deps{})
	w := doJSON(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStats(t *testing.T) {
	collector := metrics.NewCollector()
	collector.RecordTiming(metrics.OpRetrieval, 5*time.Millisecond)
	s := newTestServer(Deps{Metrics: collector})

	w := doJSON(t, s, http.MethodGet, "/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uptime_seconds")
	assert.Contains(t, w.Body.String(), "retrieval")
}

func TestSendMessage(t *testing.T) {
	chat := &fakeChat{result: &service.TurnResult{
		Answer:  "<div class='answer'><p>12 crore</p></div>",
		Sources: []string{"Document: budget.pdf, Page: 3"},
	}}
	s := newTestServer(Deps{Chat: chat})

	w := doJSON(t, s, http.MethodPost, "/chat", ChatRequest{UserID: "u1", Message: "budget 2014?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, chat.result.Answer, resp.Answer)
	assert.Equal(t, chat.result.Sources, resp.Sources)
	assert.True(t, resp.IsHTML)
}

func TestSendMessageValidation(t *testing.T) {
	s := newTestServer(Deps{Chat: &fakeChat{}})

	w := doJSON(t, s, http.MethodPost, "/chat", map[string]string{"message": "no user id"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/chat", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageError(t *testing.T) {
	s := newTestServer(Deps{Chat: &fakeChat{err: errors.New("pipeline down")}})

	w := doJSON(t, s, http.MethodPost, "/chat", ChatRequest{UserID: "u1", Message: "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pipeline down")
}

func TestGetHistory(t *testing.T) {
	conv := &fakeConversations{messages: []models.Message{
		{Role: models.RoleUser, Content: "q", CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)},
		{Role: models.RoleAssistant, Content: "a", CreatedAt: time.Date(2026, 2, 1, 10, 0, 5, 0, time.UTC)},
	}}
	s := newTestServer(Deps{Conversations: conv})

	w := doJSON(t, s, http.MethodGet, "/chat/history?user_id=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "2026-02-01T10:00:00Z", resp.Messages[0].Timestamp)
}

func TestGetHistoryMissingUserID(t *testing.T) {
	s := newTestServer(Deps{Conversations: &fakeConversations{}})
	w := doJSON(t, s, http.MethodGet, "/chat/history", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckUser(t *testing.T) {
	s := newTestServer(Deps{Conversations: &fakeConversations{exists: true}})

	w := doJSON(t, s, http.MethodGet, "/chat/exists?user_id=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UserExistsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasHistory)
	assert.Contains(t, resp.Message, "Returning user")
}

func TestDeleteHistory(t *testing.T) {
	conv := &fakeConversations{}
	s := newTestServer(Deps{Conversations: conv})

	w := doJSON(t, s, http.MethodDelete, "/chat/history", ClearRequest{UserID: "u1"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"u1"}, conv.cleared)
}

func TestRegisterAndLogin(t *testing.T) {
	users := &fakeUsers{}
	s := newTestServer(Deps{Users: users})

	w := doJSON(t, s, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "long-enough-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var reg AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.NotEmpty(t, reg.UserID)
	assert.NotEmpty(t, reg.Token)

	w = doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "asha@example.com", Password: "long-enough-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, reg.UserID, login.UserID)
	assert.Equal(t, "Asha", login.Name)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(Deps{Users: &fakeUsers{createErr: db.ErrAlreadyExists}})

	w := doJSON(t, s, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "long-enough-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := &fakeUsers{}
	s := newTestServer(Deps{Users: users})

	doJSON(t, s, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "long-enough-pass",
	})

	w := doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "asha@example.com", Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListDocs(t *testing.T) {
	s := newTestServer(Deps{Docs: &fakeDocs{docs: []db.DocCount{
		{DocName: "annual_report", Count: 42},
	}}})

	w := doJSON(t, s, http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "annual_report")
}

func TestStartIngestAndJobLifecycle(t *testing.T) {
	registry := jobs.NewRegistry()
	ingestor := &fakeIngestor{result: &service.IngestResult{Chunks: 3}, done: make(chan struct{})}
	s := newTestServer(Deps{Ingestor: ingestor, Jobs: registry})

	w := doJSON(t, s, http.MethodPost, "/ingest", IngestRequest{Path: "/data/dump.txt"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)

	<-ingestor.done
	require.Eventually(t, func() bool {
		job, ok := registry.Get(resp.JobID)
		return ok && job.Status == jobs.StatusCompleted
	}, time.Second, 5*time.Millisecond)

	w = doJSON(t, s, http.MethodGet, "/jobs/"+resp.JobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "completed")

	w = doJSON(t, s, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resp.JobID)
}

func TestStartIngestFailureMarksJobFailed(t *testing.T) {
	registry := jobs.NewRegistry()
	ingestor := &fakeIngestor{err: errors.New("dump unreadable"), done: make(chan struct{})}
	s := newTestServer(Deps{Ingestor: ingestor, Jobs: registry})

	w := doJSON(t, s, http.MethodPost, "/ingest", IngestRequest{Path: "/data/bad.txt"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	<-ingestor.done
	require.Eventually(t, func() bool {
		job, ok := registry.Get(resp.JobID)
		return ok && job.Status == jobs.StatusFailed && job.Error == "dump unreadable"
	}, time.Second, 5*time.Millisecond)
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestServer(Deps{})
	w := doJSON(t, s, http.MethodGet, "/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatchJobStreamsOverWebsocket(t *testing.T) {
	registry := jobs.NewRegistry()
	handle := registry.Start("ingest", 2)
	s := newTestServer(Deps{Jobs: registry})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/jobs/" + handle.ID() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first jobs.Job
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, jobs.StatusRunning, first.Status)

	handle.Progress(2)
	handle.Complete()

	sawComplete := false
	for !sawComplete {
		var snap jobs.Job
		if err := conn.ReadJSON(&snap); err != nil {
			break
		}
		sawComplete = snap.Status == jobs.StatusCompleted
	}
	assert.True(t, sawComplete)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
