// Package learned maintains the table of user-corrected categories derived
// from the append-only feedback log.
package learned

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/pigeonhole/internal/model"
)

// FeedbackLog is a line-delimited JSON file of FeedbackRecords, one
// correction per line.
type FeedbackLog struct {
	path string
	mu   sync.Mutex
}

// NewFeedbackLog creates a feedback log backed by the file at path. The
// parent directory is created if needed.
func NewFeedbackLog(path string) (*FeedbackLog, error) {
	if path == "" {
		return nil, fmt.Errorf("feedback log path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}

	return &FeedbackLog{path: path}, nil
}

// Append adds one record to the end of the log.
func (l *FeedbackLog) Append(record model.FeedbackRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode feedback record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("Failed to close feedback log", "error", cerr)
		}
	}()

	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("failed to append feedback record: %w", err)
	}

	return nil
}

// Scan calls fn for every well-formed record in the log. Malformed lines
// are logged and skipped; they never abort the scan. A missing log file is
// an empty scan, not an error.
func (l *FeedbackLog) Scan(fn func(model.FeedbackRecord)) error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record model.FeedbackRecord
		if err := json.Unmarshal(line, &record); err != nil {
			slog.Warn("Skipping malformed feedback line", "line", lineNo, "error", err)
			continue
		}

		fn(record)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read feedback log: %w", err)
	}

	return nil
}
