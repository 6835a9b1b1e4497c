package auth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AuthLogger records authentication attempts to slog and, when enabled,
// appends them to <dir>/auth.log.
type AuthLogger struct {
	enabled bool
	dir     string
}

// NewAuthLogger returns a logger writing the audit file to dir when enabled.
func NewAuthLogger(enabled bool, dir string) *AuthLogger {
	return &AuthLogger{enabled: enabled, dir: dir}
}

// LogAuthAttempt records one attempt.
// Fields: timestamp (RFC3339) | level | authType | status | identifier? | message?
// status: Success|Fail
func (l *AuthLogger) LogAuthAttempt(level slog.Level, authType string, status string, identifier string, message string) {
	slog.Log(context.Background(), level, "auth attempt",
		"type", authType,
		"status", status,
		"identifier", identifier,
		"message", message,
	)

	if l == nil || !l.enabled {
		return
	}

	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		slog.Warn("auth log directory unavailable", "dir", l.dir, "err", err)
		return
	}
	f, err := os.OpenFile(filepath.Join(l.dir, "auth.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		slog.Warn("auth log unavailable", "err", err)
		return
	}
	defer func() { _ = f.Close() }()

	ts := time.Now().UTC().Format(time.RFC3339)
	parts := []string{ts, strings.ToLower(level.String()), authType, status}
	if identifier != "" {
		parts = append(parts, identifier)
	}
	if message != "" {
		parts = append(parts, message)
	}

	if _, err := f.WriteString(strings.Join(parts, " | ") + "\n"); err != nil {
		slog.Warn("auth log write failed", "err", err)
	}
}
