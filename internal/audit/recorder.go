package audit

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"vigilance-engine/internal/models"
)

const (
	AuditFile = "audit.log"
	ScoreFile = "scores.log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Recorder is the pipeline's append-only audit trail.
type Recorder interface {
	Record(entry models.AuditEntry)
	RecordScoringEvent(entry models.ScoreLogEntry)
	RecentEntries(limit int) []models.AuditEntry
	RecentScores(limit int) []models.ScoreLogEntry
	Close() error
}

// FileRecorder writes newline-delimited JSON to audit.log and scores.log in dir.
// Write failures are logged and swallowed.
type FileRecorder struct {
	audit  *appendLog
	scores *appendLog
	logger *zap.Logger
}

// NewFileRecorder prepares a recorder rooted at dir. Files are opened on first write.
func NewFileRecorder(dir string, logger *zap.Logger) *FileRecorder {
	return &FileRecorder{
		audit:  &appendLog{path: filepath.Join(dir, AuditFile)},
		scores: &appendLog{path: filepath.Join(dir, ScoreFile)},
		logger: logger,
	}
}

func (r *FileRecorder) Record(entry models.AuditEntry) {
	if err := r.audit.appendJSON(entry); err != nil {
		r.logger.Error("Failed to write audit log",
			zap.String("action", string(entry.Action)),
			zap.String("child_id", entry.ChildID),
			zap.Error(err))
	}
}

func (r *FileRecorder) RecordScoringEvent(entry models.ScoreLogEntry) {
	if err := r.scores.appendJSON(entry); err != nil {
		r.logger.Error("Failed to write score log",
			zap.String("message_id", entry.MessageID),
			zap.String("child_id", entry.ChildID),
			zap.Error(err))
	}
}

// RecentEntries returns up to limit of the newest audit entries, oldest first.
func (r *FileRecorder) RecentEntries(limit int) []models.AuditEntry {
	entries := []models.AuditEntry{}
	err := r.audit.tail(limit, func(line []byte) {
		var e models.AuditEntry
		if json.Unmarshal(line, &e) != nil || e.Action == "" {
			return
		}
		entries = append(entries, e)
	})
	if err != nil {
		r.logger.Error("Failed to read audit log", zap.Error(err))
	}
	return keepLast(entries, limit)
}

// RecentScores returns up to limit of the newest scoring events, oldest first.
func (r *FileRecorder) RecentScores(limit int) []models.ScoreLogEntry {
	entries := []models.ScoreLogEntry{}
	err := r.scores.tail(limit, func(line []byte) {
		var e models.ScoreLogEntry
		if json.Unmarshal(line, &e) != nil || e.MessageID == "" {
			return
		}
		entries = append(entries, e)
	})
	if err != nil {
		r.logger.Error("Failed to read score log", zap.Error(err))
	}
	return keepLast(entries, limit)
}

func (r *FileRecorder) Close() error {
	return errors.Join(r.audit.close(), r.scores.close())
}

// appendLog serializes appends so each line lands with a single write.
type appendLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func (l *appendLog) appendJSON(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode log line: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return fmt.Errorf("failed to create log dir: %w", err)
		}
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
	}

	if _, err := l.file.Write(line); err != nil {
		// reopen on the next append
		_ = l.file.Close()
		l.file = nil
		return fmt.Errorf("failed to append log line: %w", err)
	}
	return nil
}

// tail feeds every non-empty line to accept. A missing file yields nothing.
func (l *appendLog) tail(limit int, accept func(line []byte)) error {
	if limit <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			accept(trimmed)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (l *appendLog) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func keepLast[T any](entries []T, limit int) []T {
	if len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}
