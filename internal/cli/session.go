package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Session is the locally stored identity. UserID keys the conversation on
// the server; Token is kept from the last register/login.
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Token  string `json:"token,omitempty"`
}

func sessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "govqa", "session.json"), nil
}

func loadSession() (*Session, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &s, nil
}

func saveSession(s *Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// resolveUserID returns the conversation user ID: the --user flag wins, then
// the session file; otherwise a fresh ID is minted and saved so the next
// command continues the same conversation.
func resolveUserID() (string, error) {
	if userFlag != "" {
		return userFlag, nil
	}

	session, err := loadSession()
	if err != nil {
		return "", err
	}
	if session != nil && session.UserID != "" {
		return session.UserID, nil
	}

	id := uuid.NewString()
	if err := saveSession(&Session{UserID: id}); err != nil {
		return "", err
	}
	fmt.Fprintf(os.Stderr, "Started new conversation as %s\n", id)
	return id, nil
}
