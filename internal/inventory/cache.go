package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrDecode marks a cache file that is missing, unreadable or not valid
// JSON. Callers treat it as a cache miss, not a hard failure.
var ErrDecode = errors.New("decode cached inventory")

// Store persists one inventory document as a plain JSON file. Freshness
// is derived from the file's modification time; nothing besides the
// document itself is stored.
//
// Concurrent invocations against the same path are not serialized: two
// callers can both observe staleness, both fetch and both write. Last
// writer wins, which is acceptable since every write is a complete
// snapshot.
type Store struct{}

// Read parses the cached document at path. Every failure mode wraps
// ErrDecode.
func (Store) Read(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &doc, nil
}

// Write replaces the cache file at path with doc, creating missing parent
// directories first. An already existing directory is fine; a denied
// creation is not and propagates to the caller.
func (Store) Write(path string, doc *Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	return nil
}

// Fresh reports whether the file at path exists and is younger than ttl.
// A file aged exactly ttl is stale.
func (Store) Fresh(path string, ttl time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return time.Since(info.ModTime()) < ttl
}
