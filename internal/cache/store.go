// Package cache implements the durable, TTL-bounded result store. Entries
// are one JSON file per coarse-key hash; writes go through a temp file and
// rename so a partially written entry is never observable, and reads for a
// key with an in-flight write wait for that write to settle first.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/pigeonhole/internal/model"
)

// DefaultTTL is the fixed lifetime of a cache entry.
const DefaultTTL = 24 * time.Hour

const entryExt = ".json"

// Stats summarizes the store's contents.
type Stats struct {
	EntryCount int
	TotalBytes int64
}

// Store is a file-backed result cache with read-after-write consistency
// per key.
type Store struct {
	now    func() time.Time
	writes map[string]chan struct{}
	dir    string
	ttl    time.Duration
	mu     sync.Mutex
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Store{
		dir:    dir,
		ttl:    DefaultTTL,
		now:    time.Now,
		writes: make(map[string]chan struct{}),
	}, nil
}

// Get returns the cached result for key, or false if the key was never
// written, has expired, or is unreadable. An expired or corrupt entry is
// deleted on read. If a write for the same key is in flight, Get waits for
// it to settle before reading.
func (s *Store) Get(ctx context.Context, key string) (model.CategorizationResult, bool) {
	if err := s.awaitWrite(ctx, key); err != nil {
		return model.CategorizationResult{}, false
	}

	path := s.entryPath(key)

	raw, err := os.ReadFile(path) //nolint:gosec // path is derived from a hex hash
	if err != nil {
		return model.CategorizationResult{}, false
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Warn("Dropping corrupt cache entry", "key", key, "error", err)
		s.remove(path)
		return model.CategorizationResult{}, false
	}

	if s.now().Sub(entry.Timestamp) >= s.ttl {
		s.remove(path)
		return model.CategorizationResult{}, false
	}

	return entry.Data, true
}

// Set durably stores result under key. Writes to the same key are
// serialized; the in-flight handle is removed whether the write succeeds
// or fails.
func (s *Store) Set(ctx context.Context, key string, result model.CategorizationResult) error {
	done, err := s.claimWrite(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		s.mu.Lock()
		delete(s.writes, key)
		s.mu.Unlock()
		close(done)
	}()

	entry := model.CacheEntry{Data: result, Timestamp: s.now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "write-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		s.remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.entryPath(key)); err != nil {
		s.remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return nil
}

// claimWrite registers this writer as the single in-flight write for key,
// waiting out any prior write first.
func (s *Store) claimWrite(ctx context.Context, key string) (chan struct{}, error) {
	for {
		s.mu.Lock()
		prior, busy := s.writes[key]
		if !busy {
			done := make(chan struct{})
			s.writes[key] = done
			s.mu.Unlock()
			return done, nil
		}
		s.mu.Unlock()

		select {
		case <-prior:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// awaitWrite blocks until no write for key is in flight.
func (s *Store) awaitWrite(ctx context.Context, key string) error {
	for {
		s.mu.Lock()
		pending, busy := s.writes[key]
		s.mu.Unlock()
		if !busy {
			return nil
		}

		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats reports the number of entries on disk and their total size.
func (s *Store) Stats() (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return stats, fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.EntryCount++
		stats.TotalBytes += info.Size()
	}

	return stats, nil
}

// ClearExpired deletes entries older than the TTL, plus any unreadable
// ones. Returns the number of entries removed.
func (s *Store) ClearExpired() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}

		path := filepath.Join(s.dir, e.Name())
		raw, err := os.ReadFile(path) //nolint:gosec // entries live under s.dir
		if err != nil {
			continue
		}

		var entry model.CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil || s.now().Sub(entry.Timestamp) >= s.ttl {
			s.remove(path)
			removed++
		}
	}

	return removed, nil
}

// ClearAll deletes every entry. Returns the number of entries removed.
func (s *Store) ClearAll() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}
		s.remove(filepath.Join(s.dir, e.Name()))
		removed++
	}

	return removed, nil
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+entryExt)
}

func (s *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove cache file", "path", path, "error", err)
	}
}
