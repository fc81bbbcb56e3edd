// Package logger writes the server's event log: one JSON line per visit or
// lifecycle event, in a per-run file. Operational messages still go to the
// standard logger; this file is for after-the-fact inspection of traffic.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	IP        string    `json:"ip,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
}

type Logger struct {
	mu    sync.Mutex
	file  *os.File
	enc   *json.Encoder
	runID string
}

// New opens an event log file under dir, named by a fresh run id so restarts
// never clobber old logs. A nil *Logger is valid and discards everything,
// which is how deployments without a log directory run.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runID := uuid.New().String()
	path := filepath.Join(dir, fmt.Sprintf("beacon-%s.log", runID))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		file:  file,
		enc:   json.NewEncoder(file),
		runID: runID,
	}, nil
}

func (l *Logger) Log(entry LogEntry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Timestamp = time.Now()
	l.enc.Encode(entry)
}

func (l *Logger) LogVisit(ip, postID string) {
	l.Log(LogEntry{Type: "visit", IP: ip, PostID: postID})
}

func (l *Logger) LogEvent(message string) {
	l.Log(LogEntry{Type: "event", Message: message})
}

func (l *Logger) LogError(err error) {
	l.Log(LogEntry{Type: "error", Error: err.Error()})
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) GetLogPath() string {
	if l == nil || l.file == nil {
		return ""
	}
	return l.file.Name()
}

func (l *Logger) GetRunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}
