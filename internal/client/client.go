// Package client provides a REST client for the govqa server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mehulvora/govqa-go/internal/jobs"
	"github.com/mehulvora/govqa-go/internal/server"
)

// Client talks to the govqa HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty endpoint falls back to GOVQA_SERVER_URL,
// then localhost:8000. The timeout is generous because answering a question
// involves a model call.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("GOVQA_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8000"
	}
	endpoint = strings.TrimRight(endpoint, "/")

	timeout := 5 * time.Minute
	if t := os.Getenv("GOVQA_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiError is the server's error envelope.
type apiError struct {
	Error string `json:"error"`
}

// do sends a request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Chat sends one message and returns the answer with its sources.
func (c *Client) Chat(ctx context.Context, userID, message string) (*server.ChatResponse, error) {
	var resp server.ChatResponse
	err := c.do(ctx, http.MethodPost, "/chat", server.ChatRequest{UserID: userID, Message: message}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches the full conversation for a user.
func (c *Client) History(ctx context.Context, userID string) (*server.HistoryResponse, error) {
	var resp server.HistoryResponse
	err := c.do(ctx, http.MethodGet, "/chat/history?user_id="+url.QueryEscape(userID), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Exists reports whether the user has stored history.
func (c *Client) Exists(ctx context.Context, userID string) (bool, error) {
	var resp server.UserExistsResponse
	err := c.do(ctx, http.MethodGet, "/chat/exists?user_id="+url.QueryEscape(userID), nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.HasHistory, nil
}

// Clear deletes the user's conversation.
func (c *Client) Clear(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/chat/history", server.ClearRequest{UserID: userID}, nil)
}

// Register creates a user account and returns its session.
func (c *Client) Register(ctx context.Context, name, email, password string) (*server.AuthResponse, error) {
	var resp server.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register",
		server.RegisterRequest{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates and returns the session.
func (c *Client) Login(ctx context.Context, email, password string) (*server.AuthResponse, error) {
	var resp server.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login",
		server.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartIngest asks the server to ingest a dump file and returns the job ID.
func (c *Client) StartIngest(ctx context.Context, path string) (string, error) {
	var resp struct {
		JobID string `json:"job_id"`
	}
	err := c.do(ctx, http.MethodPost, "/ingest", server.IngestRequest{Path: path}, &resp)
	if err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// ListJobs returns all known jobs, newest first.
func (c *Client) ListJobs(ctx context.Context) ([]jobs.Job, error) {
	var resp struct {
		Jobs []jobs.Job `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// GetJob returns one job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (*jobs.Job, error) {
	var job jobs.Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// DocCount mirrors the server's per-document chunk count.
type DocCount struct {
	DocName string `json:"doc_name"`
	Count   int    `json:"count"`
}

// ListDocs returns the indexed documents with their chunk counts.
func (c *Client) ListDocs(ctx context.Context) ([]DocCount, error) {
	var resp struct {
		Docs []DocCount `json:"docs"`
	}
	if err := c.do(ctx, http.MethodGet, "/docs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Docs, nil
}

// Stats returns the server's metrics snapshot as raw JSON.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// WatchJob follows a job over the websocket endpoint, invoking onUpdate for
// every snapshot until the job finishes or ctx is cancelled. The final
// snapshot is returned.
func (c *Client) WatchJob(ctx context.Context, id string, onUpdate func(jobs.Job)) (*jobs.Job, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/jobs/" + url.PathEscape(id) + "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("job %s not found", id)
		}
		return nil, fmt.Errorf("connect to job stream: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var last *jobs.Job
	for {
		var snap jobs.Job
		if err := conn.ReadJSON(&snap); err != nil {
			if last != nil && last.Done() {
				return last, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read job stream: %w", err)
		}
		last = &snap
		if onUpdate != nil {
			onUpdate(snap)
		}
		if snap.Done() {
			return last, nil
		}
	}
}
